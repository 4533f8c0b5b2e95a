package models

// FieldConfig configures one of the built-in entry form fields.
type FieldConfig struct {
	Enabled  bool   `json:"enabled" bson:"enabled"`
	Label    string `json:"label" bson:"label"`
	Required bool   `json:"required" bson:"required"`
}

// PrivacyPolicyConfig configures the consent checkbox.
type PrivacyPolicyConfig struct {
	Enabled    bool   `json:"enabled" bson:"enabled"`
	Text       string `json:"text" bson:"text"`
	PolicyText string `json:"policyText" bson:"policyText"`
}

// HeroBanner is the banner shown above the entry form.
type HeroBanner struct {
	Enabled        bool    `json:"enabled" bson:"enabled"`
	Image          string  `json:"image" bson:"image"`
	Text           string  `json:"text" bson:"text"`
	TextColor      string  `json:"textColor" bson:"textColor"`
	OverlayOpacity float64 `json:"overlayOpacity" bson:"overlayOpacity"`
}

type FormFields struct {
	Surname       FieldConfig         `json:"surname" bson:"surname"`
	Name          FieldConfig         `json:"name" bson:"name"`
	AmountSpent   FieldConfig         `json:"amountSpent" bson:"amountSpent"`
	PrivacyPolicy PrivacyPolicyConfig `json:"privacyPolicy" bson:"privacyPolicy"`
}

// CustomField is an admin-defined extra form input. Submitted values are
// stored on the spin result keyed by ID.
type CustomField struct {
	ID          string `json:"id" bson:"id"`
	Label       string `json:"label" bson:"label"`
	Type        string `json:"type" bson:"type"`
	Enabled     bool   `json:"enabled" bson:"enabled"`
	Required    bool   `json:"required" bson:"required"`
	Placeholder string `json:"placeholder" bson:"placeholder"`
}

// FormConfig is the entry form shown before a spin.
type FormConfig struct {
	Enabled          bool          `json:"enabled" bson:"enabled"`
	Title            string        `json:"title" bson:"title"`
	Subtitle         string        `json:"subtitle" bson:"subtitle"`
	IntroText        string        `json:"introText" bson:"introText"`
	HeroBanner       HeroBanner    `json:"heroBanner" bson:"heroBanner"`
	Fields           FormFields    `json:"fields" bson:"fields"`
	CustomFields     []CustomField `json:"customFields" bson:"customFields"`
	SubmitButtonText string        `json:"submitButtonText" bson:"submitButtonText"`
	BackgroundColor  string        `json:"backgroundColor" bson:"backgroundColor"`
	TextColor        string        `json:"textColor" bson:"textColor"`
	ButtonColor      string        `json:"buttonColor" bson:"buttonColor"`
}

func (f FormConfig) Clone() FormConfig {
	c := f
	if f.CustomFields != nil {
		c.CustomFields = append([]CustomField(nil), f.CustomFields...)
	}
	return c
}

// DefaultFormConfig returns the form configuration used for any key the
// admin has not set.
func DefaultFormConfig() FormConfig {
	return FormConfig{
		Enabled:   true,
		Title:     "Enter Your Details",
		Subtitle:  "Please fill in your information to spin the wheel",
		IntroText: "",
		HeroBanner: HeroBanner{
			Enabled:        false,
			Text:           "Welcome to Our Restaurant 🍽️ Spin & Win Your Reward!",
			TextColor:      "#ffffff",
			OverlayOpacity: 0.4,
		},
		Fields: FormFields{
			Surname:     FieldConfig{Enabled: true, Label: "Surname/Initial", Required: true},
			Name:        FieldConfig{Enabled: true, Label: "Full Name", Required: true},
			AmountSpent: FieldConfig{Enabled: true, Label: "Amount Spent on Food", Required: true},
			PrivacyPolicy: PrivacyPolicyConfig{
				Enabled:    true,
				Text:       "I agree to the privacy policy and terms of service",
				PolicyText: "Your privacy is important to us. We collect and use your information only for the purpose of this promotion.",
			},
		},
		CustomFields:     []CustomField{},
		SubmitButtonText: "Next",
		BackgroundColor:  "#ffffff",
		TextColor:        "#2c3e50",
		ButtonColor:      "#3498db",
	}
}

// The *Input types mirror the schema above with optional fields, so that a
// partial document from the editor can be told apart from explicit zero
// values.

type FieldConfigInput struct {
	Enabled  *bool   `json:"enabled"`
	Label    *string `json:"label"`
	Required *bool   `json:"required"`
}

type PrivacyPolicyInput struct {
	Enabled    *bool   `json:"enabled"`
	Text       *string `json:"text"`
	PolicyText *string `json:"policyText"`
}

type HeroBannerInput struct {
	Enabled        *bool    `json:"enabled"`
	Image          *string  `json:"image"`
	Text           *string  `json:"text"`
	TextColor      *string  `json:"textColor"`
	OverlayOpacity *float64 `json:"overlayOpacity"`
}

type FormFieldsInput struct {
	Surname       *FieldConfigInput   `json:"surname"`
	Name          *FieldConfigInput   `json:"name"`
	AmountSpent   *FieldConfigInput   `json:"amountSpent"`
	PrivacyPolicy *PrivacyPolicyInput `json:"privacyPolicy"`
}

type FormConfigInput struct {
	Enabled          *bool            `json:"enabled"`
	Title            *string          `json:"title"`
	Subtitle         *string          `json:"subtitle"`
	IntroText        *string          `json:"introText"`
	HeroBanner       *HeroBannerInput `json:"heroBanner"`
	Fields           *FormFieldsInput `json:"fields"`
	CustomFields     []CustomField    `json:"customFields"`
	SubmitButtonText *string          `json:"submitButtonText"`
	BackgroundColor  *string          `json:"backgroundColor"`
	TextColor        *string          `json:"textColor"`
	ButtonColor      *string          `json:"buttonColor"`
}

// MergeFormConfig overlays in onto the defaults group by group. Custom
// fields are never merged: the incoming list replaces the default empty
// one, and a missing list yields an empty one.
func MergeFormConfig(in *FormConfigInput) FormConfig {
	out := DefaultFormConfig()
	if in == nil {
		return out
	}
	setBool(&out.Enabled, in.Enabled)
	setString(&out.Title, in.Title)
	setString(&out.Subtitle, in.Subtitle)
	setString(&out.IntroText, in.IntroText)
	setString(&out.SubmitButtonText, in.SubmitButtonText)
	setString(&out.BackgroundColor, in.BackgroundColor)
	setString(&out.TextColor, in.TextColor)
	setString(&out.ButtonColor, in.ButtonColor)

	if hb := in.HeroBanner; hb != nil {
		setBool(&out.HeroBanner.Enabled, hb.Enabled)
		setString(&out.HeroBanner.Image, hb.Image)
		setString(&out.HeroBanner.Text, hb.Text)
		setString(&out.HeroBanner.TextColor, hb.TextColor)
		if hb.OverlayOpacity != nil {
			out.HeroBanner.OverlayOpacity = *hb.OverlayOpacity
		}
	}

	if f := in.Fields; f != nil {
		mergeField(&out.Fields.Surname, f.Surname)
		mergeField(&out.Fields.Name, f.Name)
		mergeField(&out.Fields.AmountSpent, f.AmountSpent)
		if pp := f.PrivacyPolicy; pp != nil {
			setBool(&out.Fields.PrivacyPolicy.Enabled, pp.Enabled)
			setString(&out.Fields.PrivacyPolicy.Text, pp.Text)
			setString(&out.Fields.PrivacyPolicy.PolicyText, pp.PolicyText)
		}
	}

	if in.CustomFields != nil {
		out.CustomFields = append([]CustomField(nil), in.CustomFields...)
	}
	return out
}

func mergeField(dst *FieldConfig, in *FieldConfigInput) {
	if in == nil {
		return
	}
	setBool(&dst.Enabled, in.Enabled)
	setString(&dst.Label, in.Label)
	setBool(&dst.Required, in.Required)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
