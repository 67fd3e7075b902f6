package registry

import (
	"errors"
	"fmt"
	"strings"

	"egrul/internal/registry/models"
)

var (
	// ErrOddDirectorTokens marks a director field whose tokens do not pair up.
	ErrOddDirectorTokens = errors.New("director field has an odd token count")
	// ErrDirectorSegment marks an interior segment with no comma to split on.
	ErrDirectorSegment = errors.New("director segment has no comma")
)

// Normalize maps a raw row into a canonical record. Problems in the director
// field are returned alongside the best-effort record; the record is always
// usable.
func Normalize(raw models.RawRecord) (models.CanonicalRecord, error) {
	rec := models.CanonicalRecord{
		Kind:          models.ParseKind(raw.Get(models.KeyKind)),
		DocumentToken: raw.Get(models.KeyToken),
	}

	if rec.Kind == models.KindIndividual {
		rec.FullName = raw.Get(models.KeyTitleLong)
		rec.Surname, rec.GivenName, rec.Patronymic = SplitFullName(rec.FullName)
		return rec, nil
	}

	rec.TitleLong = raw.Get(models.KeyTitleLong)
	rec.TitleShort = raw.Get(models.KeyTitleShort)
	rec.Address = raw.Get(models.KeyAddress)
	rec.TaxID = raw.Get(models.KeyTaxID)
	rec.RegistrationNumber = raw.Get(models.KeyRegNumber)
	rec.TaxRegistrationCode = raw.Get(models.KeyTaxRegCode)
	rec.RegistrationDate = raw.Get(models.KeyRegDate)
	rec.TerminationDate = raw.Get(models.KeyTerminationDate)
	rec.InvalidityDate = raw.Get(models.KeyInvalidityDate)

	var err error
	switch {
	case raw.Has(models.KeyDirector):
		field := raw.Get(models.KeyDirector)
		rec.DirectorsRaw = field

		var directors []models.Director
		directors, err = ParseDirectors(field)
		if IsMultipleDirectors(field) {
			rec.Directors = directors
		}
		rec.DirectorCount = len(directors)
		if len(directors) > 0 {
			rec.Position = directors[0].Position
			rec.FullName = directors[0].FullName
		}
	case rec.Kind == models.KindLegalEntity:
		err = errors.New("legal entity row has no director field")
	default:
		rec.FullName = raw.Get(models.KeyTitleLong)
	}

	rec.Surname, rec.GivenName, rec.Patronymic = SplitFullName(rec.FullName)
	return rec, err
}

// IsMultipleDirectors reports whether the field lists several people: it
// contains a comma and more than one colon.
func IsMultipleDirectors(field string) bool {
	return strings.Contains(field, ",") && strings.Count(field, ":") > 1
}

// ParseDirectors splits a "position: name" field into directors.
//
// A single-director field is split once on ':'; without a colon the whole
// field is the name. A multiple-director field is split on every ':'. The
// first and last segments are a position and a name. Each interior segment is
// cut at its first comma into the previous name and the next position. A
// comma inside a name or a position title is therefore misread; that case is
// not recoverable from the field alone.
//
// Interior segments without a comma are kept whole and reported with
// ErrDirectorSegment. A trailing unpaired token is dropped and reported with
// ErrOddDirectorTokens.
func ParseDirectors(field string) ([]models.Director, error) {
	if strings.TrimSpace(field) == "" {
		return nil, nil
	}
	if !IsMultipleDirectors(field) {
		position, name, found := strings.Cut(field, ":")
		if !found {
			return []models.Director{{FullName: strings.TrimSpace(field)}}, nil
		}
		return []models.Director{{
			Position: strings.TrimSpace(position),
			FullName: strings.TrimSpace(name),
		}}, nil
	}

	var errs []error
	segments := strings.Split(field, ":")
	tokens := make([]string, 0, 2*len(segments))
	for i, seg := range segments {
		if i == 0 || i == len(segments)-1 {
			tokens = append(tokens, strings.TrimSpace(seg))
			continue
		}
		name, position, found := strings.Cut(seg, ",")
		if !found {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDirectorSegment, strings.TrimSpace(seg)))
			tokens = append(tokens, strings.TrimSpace(seg))
			continue
		}
		tokens = append(tokens, strings.TrimSpace(name), strings.TrimSpace(position))
	}

	if len(tokens)%2 != 0 {
		errs = append(errs, fmt.Errorf("%w: %d tokens", ErrOddDirectorTokens, len(tokens)))
	}
	directors := make([]models.Director, 0, len(tokens)/2)
	for i := 0; i+1 < len(tokens); i += 2 {
		directors = append(directors, models.Director{Position: tokens[i], FullName: tokens[i+1]})
	}
	return directors, errors.Join(errs...)
}

// SplitFullName splits a name into surname, given name and patronymic after
// collapsing whitespace. The patronymic takes every token after the second.
func SplitFullName(name string) (surname, givenName, patronymic string) {
	parts := strings.Fields(name)
	if len(parts) >= 1 {
		surname = parts[0]
	}
	if len(parts) >= 2 {
		givenName = parts[1]
	}
	if len(parts) >= 3 {
		patronymic = strings.Join(parts[2:], " ")
	}
	return surname, givenName, patronymic
}
