package template

// Vars holds the variable set recognized by campaign templates
type Vars struct {
	ContactName       string
	ContactEmail      string
	ContactCompany    string
	CompanyName       string
	ProductName       string
	SenderName        string
	InterestedLink    string
	NotInterestedLink string
	IsReminder        bool
	ReminderNumber    int
}

// Map converts the variable set to template data. Keys match the
// placeholder names used in the template file.
func (v Vars) Map() map[string]interface{} {
	company := v.ContactCompany
	if company == "" {
		company = "your organization"
	}

	return map[string]interface{}{
		"contact_name":        v.ContactName,
		"contact_email":       v.ContactEmail,
		"contact_company":     company,
		"company_name":        v.CompanyName,
		"product_name":        v.ProductName,
		"sender_name":         v.SenderName,
		"interested_link":     v.InterestedLink,
		"not_interested_link": v.NotInterestedLink,
		"is_reminder":         v.IsReminder,
		"reminder_number":     v.ReminderNumber,
	}
}
