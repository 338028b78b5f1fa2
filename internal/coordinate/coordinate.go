// Package coordinate defines the versioned identity of a module.
package coordinate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidCoordinate is returned by Parse for malformed input.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// AnyVersion matches every version when used as a range expression.
const AnyVersion = "*"

// Coordinate identifies a module by group, name and version. The version may
// be a concrete version ("1.2.0") or, for declared dependencies, a range
// expression (">=1.0.0, <2.0.0").
type Coordinate struct {
	Group   string
	Name    string
	Version string
}

// New returns a coordinate for the given parts.
func New(group, name, version string) Coordinate {
	return Coordinate{Group: group, Name: name, Version: version}
}

// Parse reads the canonical "group:name:version" form. The version part is
// optional and defaults to AnyVersion.
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return New(parts[0], parts[1], AnyVersion), nil
	case len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] != "":
		return New(parts[0], parts[1], parts[2]), nil
	default:
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
}

// MustParse is like Parse but panics on error. Intended for tests and
// static declarations.
func MustParse(s string) Coordinate {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the canonical "group:name:version" form.
func (c Coordinate) String() string {
	return c.Group + ":" + c.Name + ":" + c.Version
}

// Key returns "group:name", shared by every version of the same module.
func (c Coordinate) Key() string {
	return c.Group + ":" + c.Name
}

// IsZero reports whether c is the zero value.
func (c Coordinate) IsZero() bool {
	return c == Coordinate{}
}

// Resolved reports whether the version is a single concrete version rather
// than a range or wildcard.
func (c Coordinate) Resolved() bool {
	_, err := semver.StrictNewVersion(strings.TrimPrefix(c.Version, "v"))
	return err == nil
}

// Satisfies reports whether c's version is a member of rangeExpr. An empty
// range or AnyVersion matches everything. Non-semver versions only satisfy an
// identical expression.
func (c Coordinate) Satisfies(rangeExpr string) bool {
	rangeExpr = strings.TrimSpace(rangeExpr)
	if rangeExpr == "" || rangeExpr == AnyVersion || rangeExpr == c.Version {
		return true
	}
	v, err := semver.NewVersion(c.Version)
	if err != nil {
		return false
	}
	constraint, err := semver.NewConstraint(rangeExpr)
	if err != nil {
		return false
	}
	return constraint.Check(v)
}

// Matches reports whether c is an acceptable candidate for the dependency
// declaration dep: same group and name, and c's version satisfies dep's
// version treated as a range.
func (c Coordinate) Matches(dep Coordinate) bool {
	return c.Group == dep.Group && c.Name == dep.Name && c.Satisfies(dep.Version)
}

// Compare orders coordinates by group, name and then version. Versions that
// parse as semver compare semantically; otherwise they compare lexically, and
// a semver version sorts after a non-semver one.
func Compare(a, b Coordinate) int {
	if r := strings.Compare(a.Group, b.Group); r != 0 {
		return r
	}
	if r := strings.Compare(a.Name, b.Name); r != 0 {
		return r
	}
	return CompareVersions(a.Version, b.Version)
}

// CompareVersions compares two version strings with the same rules as Compare.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// Less is Compare expressed as a strict weak ordering, for sort.Slice.
func Less(a, b Coordinate) bool {
	return Compare(a, b) < 0
}
