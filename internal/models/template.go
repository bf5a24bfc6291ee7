package models

import "time"

// DefaultStageTemplate is the EB-5 filing pipeline used until an admin saves a custom one.
func DefaultStageTemplate() []StageDefinition {
	return []StageDefinition{
		{ID: "consulting-package", Name: "Send Consulting Packages to Investor", Description: "Prepare and send initial consulting materials"},
		{ID: "signed-package", Name: "Received Signed Package by Investor", Description: "Investor returns signed documentation"},
		{ID: "verify-accredit", Name: "Verify Accredit Investor", Description: "Confirm investor accreditation status"},
		{ID: "wire-instruction", Name: "Send Wire Instruction", Description: "Provide wire transfer instructions to investor"},
		{ID: "admin-fee", Name: "Receive Admin Fee", Description: "Confirm receipt of administrative fee payment"},
		{ID: "receive-800k", Name: "Receive 800K", Description: "Confirm receipt of $800K investment amount"},
		{ID: "upload-prxy", Name: "Upload Document to PRXY", Description: "Upload investor documents to PRXY system"},
		{ID: "hc-account", Name: "Create HC Global Investor Account", Description: "Set up HC Global account for investor"},
		{ID: "attorney-letter", Name: "Attorney Support Letter", Description: "Obtain attorney support documentation"},
		{ID: "written-direction", Name: "Written Direction", Description: "Prepare and receive written direction documents"},
		{ID: "fund-release", Name: "Fund Release", Description: "Complete final fund release process"},
	}
}

// demoDate rolls month/day overflow into the following year.
func demoDate(month, day int) string {
	return time.Date(2025, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// DemoInvestors is what the unauthenticated local store shows before anything was saved.
func DemoInvestors() []Investor {
	type demo struct {
		id, name, email, country, added, notes string
		amount                                float64
		lastDone                              int
		date                                  func(idx int) string
	}
	demos := []demo{
		{"1", "Wei Chen", "wchen@example.com", "China", "2025-08-15", "Priority processing requested", 800000, 5,
			func(i int) string { return demoDate(9+i, 10+i) }},
		{"2", "Maria Rodriguez", "mrodriguez@example.com", "Mexico", "2025-09-20", "Large investment portfolio", 1050000, 3,
			func(i int) string { return demoDate(10+i, 5+i*2) }},
		{"3", "Raj Patel", "rpatel@example.com", "India", "2025-11-01", "Family application - spouse and 2 children", 900000, 7,
			func(i int) string { return demoDate(11+i/2, 3+i*3) }},
		{"4", "Ahmed Al-Rashid", "aalrashid@example.com", "UAE", "2025-12-10", "Needs expedited documentation", 950000, 1,
			func(i int) string { return demoDate(12, 15+i*5) }},
	}

	tpl := DefaultStageTemplate()
	out := make([]Investor, 0, len(demos))
	for _, d := range demos {
		stages := StagesFromTemplate(tpl)
		for i := 0; i <= d.lastDone; i++ {
			date := d.date(i)
			stages[i].Completed = true
			stages[i].CompletedDate = &date
		}
		out = append(out, Investor{
			ID:                d.id,
			Name:              d.name,
			Email:             d.email,
			Country:           d.country,
			InvestmentAmount:  d.amount,
			DateAdded:         d.added,
			CurrentStageIndex: DeriveCurrentIndex(stages),
			Stages:            stages,
			Notes:             d.notes,
		})
	}
	return out
}
