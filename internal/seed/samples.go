package seed

import "github.com/rentalqa/backend/internal/storage/models"

// Samples returns the questions shown to visitors of a fresh install.
func Samples() []Sample {
	return []Sample{
		{
			Category:         models.CategoryTenantToLandlord,
			Question:         "What is your policy on repairs and maintenance response times?",
			ExpectedResponse: "Emergency repairs within 24 hours, urgent repairs within 3-5 days, non-urgent repairs within 2 weeks. I provide a written maintenance policy.",
			ActualResponses: []SampleResponse{
				{
					Response: "I handle everything within 24-48 hours max. Here's my maintenance policy document.",
					Outcome:  models.OutcomePositive,
					Context:  "Landlord provided detailed policy, followed through consistently",
				},
				{
					Response: "I get to it when I get to it. Don't be so demanding.",
					Outcome:  models.OutcomeNegative,
					Context:  "Multiple maintenance issues took weeks to resolve",
				},
				{
					Response: "Emergency repairs same day, others within a week usually.",
					Outcome:  models.OutcomeNeutral,
					Context:  "Generally responsive but no formal policy",
				},
			},
			Tags:  []string{"maintenance", "repairs", "timeline"},
			Votes: 127,
		},
		{
			Category:         models.CategoryLandlordToTenant,
			Question:         "How do you plan to care for the property and respect neighbors?",
			ExpectedResponse: "I keep my living space clean, follow noise guidelines especially during quiet hours, communicate proactively about any issues, and treat the property with respect.",
			ActualResponses: []SampleResponse{
				{
					Response: "I'm very clean and quiet. I work from home so I'm usually around to keep an eye on things.",
					Outcome:  models.OutcomePositive,
					Context:  "Excellent tenant, no issues in 2 years",
				},
				{
					Response: "I'll do whatever I want, it's my home while I pay rent.",
					Outcome:  models.OutcomeNegative,
					Context:  "Multiple noise complaints, property damage",
				},
				{
					Response: "I keep things tidy and try to be considerate of neighbors.",
					Outcome:  models.OutcomeNeutral,
					Context:  "Generally good tenant with minor issues",
				},
			},
			Tags:  []string{"property-care", "neighbors", "respect"},
			Votes: 89,
		},
		{
			Category:         models.CategoryTenantToLandlord,
			Question:         "Can you provide references from previous tenants?",
			ExpectedResponse: "Yes, I can provide contact information for 2-3 previous tenants (with their permission) who can speak about their rental experience.",
			ActualResponses: []SampleResponse{
				{
					Response: "Absolutely! Here are three references from tenants who lived here in the past two years.",
					Outcome:  models.OutcomePositive,
					Context:  "All references were positive, landlord was transparent",
				},
				{
					Response: "I don't give out personal information about my tenants.",
					Outcome:  models.OutcomeNegative,
					Context:  "Red flag - wouldn't provide any references",
				},
			},
			Tags:  []string{"references", "transparency", "verification"},
			Votes: 156,
		},
	}
}
