package account

import (
	"encoding/json"
	"strings"
)

// Field is a three-way optional string used by patch requests. A field
// absent from the request leaves the stored value unchanged; an explicit
// null or empty string clears it; anything else sets it.
type Field struct {
	present bool
	clear   bool
	value   string
}

func SetField(value string) Field {
	if value == "" {
		return ClearField()
	}
	return Field{present: true, value: value}
}

func ClearField() Field {
	return Field{present: true, clear: true}
}

func (f *Field) UnmarshalJSON(data []byte) error {
	f.present = true
	if string(data) == "null" {
		f.clear = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		f.clear = true
		return nil
	}
	f.value = s
	return nil
}

func (f Field) Present() bool { return f.present }

// Value returns the new value and whether the field carries one.
func (f Field) Value() (string, bool) {
	if !f.present || f.clear {
		return "", false
	}
	return f.value, true
}

// apply merges the field into a nullable column.
func (f Field) apply(dst **string) {
	if !f.present {
		return
	}
	if f.clear {
		*dst = nil
		return
	}
	v := f.value
	*dst = &v
}

// AccountPatch carries the self-service account fields a user may edit.
type AccountPatch struct {
	FirstName Field `json:"firstName"`
	LastName  Field `json:"lastName"`
	Phone     Field `json:"phone"`
	Company   Field `json:"company"`
}

// Apply merges the patch into the account and keeps the display name
// consistent with the name parts.
func (p AccountPatch) Apply(a *Account) {
	p.FirstName.apply(&a.FirstName)
	p.LastName.apply(&a.LastName)
	p.Phone.apply(&a.Phone)
	p.Company.apply(&a.Company)

	if p.FirstName.Present() || p.LastName.Present() {
		a.Name = displayName(a.FirstName, a.LastName, a.Email)
	}
}

// ProfilePatch covers the one-to-one profile extension.
type ProfilePatch struct {
	Bio         Field `json:"bio"`
	CompanyName Field `json:"companyName"`
	JobTitle    Field `json:"jobTitle"`
	Address     Field `json:"address"`
	City        Field `json:"city"`
	Country     Field `json:"country"`
	LinkedIn    Field `json:"linkedIn"`
	Github      Field `json:"github"`
	Website     Field `json:"website"`
	Timezone    Field `json:"timezone"`
	Language    Field `json:"language"`
}

func (p ProfilePatch) Apply(profile *Profile) {
	p.Bio.apply(&profile.Bio)
	p.CompanyName.apply(&profile.CompanyName)
	p.JobTitle.apply(&profile.JobTitle)
	p.Address.apply(&profile.Address)
	p.City.apply(&profile.City)
	p.Country.apply(&profile.Country)
	p.LinkedIn.apply(&profile.LinkedIn)
	p.Github.apply(&profile.Github)
	p.Website.apply(&profile.Website)
	p.Timezone.apply(&profile.Timezone)
	p.Language.apply(&profile.Language)
}

// displayName falls back to the local part of the email when no name parts
// are set, matching account creation.
func displayName(first, last *string, email string) string {
	switch {
	case first != nil && last != nil:
		return *first + " " + *last
	case first != nil:
		return *first
	case last != nil:
		return *last
	default:
		return strings.SplitN(email, "@", 2)[0]
	}
}
