package leads

// Pages whose submissions get a delayed follow-up SMS.
var smsEligiblePages = map[string]bool{
	"home":   true,
	"offer":  true,
	"offer2": true,
}

// SMSEligible reports whether a page's leads receive the follow-up SMS.
func SMSEligible(page string) bool {
	return smsEligiblePages[page]
}
