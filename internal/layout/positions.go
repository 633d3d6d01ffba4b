package layout

// Positions is the flat wire shape used by the admin layout editor. Fields
// left out of a request keep their default value.
type Positions struct {
	LogoX       *float64 `json:"logo_x,omitempty"`
	LogoY       *float64 `json:"logo_y,omitempty"`
	LogoWidth   *float64 `json:"logo_width,omitempty"`
	LogoOpacity *float64 `json:"logo_opacity,omitempty"`

	SchoolNameX       *float64 `json:"school_name_x,omitempty"`
	SchoolNameY       *float64 `json:"school_name_y,omitempty"`
	SchoolNameSize    *float64 `json:"school_name_size,omitempty"`
	SchoolNameOpacity *float64 `json:"school_name_opacity,omitempty"`

	ContactX       *float64 `json:"contact_x,omitempty"`
	ContactY       *float64 `json:"contact_y,omitempty"`
	ContactSize    *float64 `json:"contact_size,omitempty"`
	ContactOpacity *float64 `json:"contact_opacity,omitempty"`
}

// Profile overlays the set fields on base. The result is not validated.
func (p Positions) Profile(base Profile) Profile {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	out := base
	set(&out.Logo.X, p.LogoX)
	set(&out.Logo.Y, p.LogoY)
	set(&out.Logo.Width, p.LogoWidth)
	set(&out.Logo.Opacity, p.LogoOpacity)
	set(&out.Identity.X, p.SchoolNameX)
	set(&out.Identity.Y, p.SchoolNameY)
	set(&out.Identity.FontSize, p.SchoolNameSize)
	set(&out.Identity.Opacity, p.SchoolNameOpacity)
	set(&out.Contact.X, p.ContactX)
	set(&out.Contact.Y, p.ContactY)
	set(&out.Contact.FontSize, p.ContactSize)
	set(&out.Contact.Opacity, p.ContactOpacity)
	return out
}

// FromProfile returns the fully populated wire form of p.
func FromProfile(p Profile) Positions {
	f := func(v float64) *float64 { return &v }
	return Positions{
		LogoX:             f(p.Logo.X),
		LogoY:             f(p.Logo.Y),
		LogoWidth:         f(p.Logo.Width),
		LogoOpacity:       f(p.Logo.Opacity),
		SchoolNameX:       f(p.Identity.X),
		SchoolNameY:       f(p.Identity.Y),
		SchoolNameSize:    f(p.Identity.FontSize),
		SchoolNameOpacity: f(p.Identity.Opacity),
		ContactX:          f(p.Contact.X),
		ContactY:          f(p.Contact.Y),
		ContactSize:       f(p.Contact.FontSize),
		ContactOpacity:    f(p.Contact.Opacity),
	}
}

// Preset names which blocks of a profile are rendered.
type Preset string

const (
	PresetLogoOnly Preset = "logo-only"
	PresetTextLogo Preset = "text+logo"
)

// PresetFor picks the preset implied by what the branding context carries.
func PresetFor(hasText bool) Preset {
	if hasText {
		return PresetTextLogo
	}
	return PresetLogoOnly
}

func (p Preset) DrawsText() bool { return p == PresetTextLogo }
