package resolver

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Separator splits the parts of a test identifier.
const Separator = "::"

var (
	ErrInvalidTestID    = errors.New("invalid test identifier")
	ErrInvalidReference = errors.New("invalid dependency reference")
)

// TestID identifies a test by the module it lives in, the class that
// contains it and its name. Module and Class may be empty.
type TestID struct {
	Module string
	Class  string
	Name   string
}

// ParseTestID parses an identifier of the form "name", "Class::name",
// "path::name" or "path::Class::name". The first part is taken as the
// module when it looks like a file path.
func ParseTestID(id string) (TestID, error) {
	module, class, name, err := split(id)
	if err != nil {
		return TestID{}, fmt.Errorf("%w %q: %v", ErrInvalidTestID, id, err)
	}

	return TestID{Module: module, Class: class, Name: name}, nil
}

func (t TestID) String() string {
	return join(t.Module, t.Class, t.Name)
}

func (t TestID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TestID) UnmarshalText(text []byte) error {
	id, err := ParseTestID(string(text))
	if err != nil {
		return err
	}
	*t = id

	return nil
}

// Reference is a parsed dependency reference. Only Name is always set; the
// missing qualifiers are filled in by the scope of the referencing test.
type Reference struct {
	Module string
	Class  string
	Name   string
}

// ParseReference parses a raw dependency reference with the same grammar as
// ParseTestID.
func ParseReference(ref string) (Reference, error) {
	module, class, name, err := split(ref)
	if err != nil {
		return Reference{}, fmt.Errorf("%w %q: %v", ErrInvalidReference, ref, err)
	}

	return Reference{Module: module, Class: class, Name: name}, nil
}

func (r Reference) String() string {
	return join(r.Module, r.Class, r.Name)
}

func split(id string) (module, class, name string, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", "", errors.New("empty identifier")
	}

	parts := strings.Split(id, Separator)
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return "", "", "", errors.New("empty identifier part")
		}
	}

	name = parts[len(parts)-1]
	parts = parts[:len(parts)-1]

	if len(parts) > 0 && isModulePath(parts[0]) {
		module = normalizeModule(parts[0])
		parts = parts[1:]
	}

	return module, strings.Join(parts, Separator), name, nil
}

func join(module, class, name string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{module, class, name} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	return strings.Join(parts, Separator)
}

func isModulePath(part string) bool {
	return strings.ContainsAny(part, `/\.`)
}

func normalizeModule(module string) string {
	module = strings.ReplaceAll(module, `\`, "/")
	if module == "" {
		return ""
	}

	return path.Clean(module)
}

// moduleMatches reports whether the module path have is named by the
// possibly partial module qualifier want.
func moduleMatches(have, want string) bool {
	return have == want || strings.HasSuffix(have, "/"+want)
}
