package scales

func intp(v int) *int { return &v }

// Scale table names.
const (
	ScaleConfidence          = "confidence"
	ScaleImpact              = "impact"
	ScaleFrequency           = "frequency"
	ScaleFrequencyIncidents  = "frequency_incidents"
	ScaleFraudIncidents      = "fraud_incidents"
	ScaleStaffTime           = "staff_time"
	ScaleHoursResolving      = "hours_resolving"
	ScaleWorkforcePercentage = "workforce_percentage"
	ScaleReturnRate          = "return_rate"
	ScaleTechLevel           = "tech_level"
	ScaleWorkerInterest      = "worker_interest"
)

// Default returns the built-in lookup tables: the survey tool's scale label
// vocabularies, the regional groupings, and the field rules binding question
// stems to canonical fields.
func Default() *Set {
	return &Set{
		Scales: map[string]Scale{
			ScaleConfidence: {Name: ScaleConfidence, Codes: map[string]*int{
				"Very unconfident": intp(1),
				"Unconfident":      intp(2),
				"Neutral":          intp(3),
				"Confident":        intp(4),
				"Very Confident":   intp(5),
			}},
			ScaleImpact: {Name: ScaleImpact, Codes: map[string]*int{
				"No impact (0)":          intp(0),
				"Slight impact (1)":      intp(1),
				"Moderate impact (2)":    intp(2),
				"Significant impact (3)": intp(3),
				"Don't know":             nil,
			}},
			ScaleFrequency: {Name: ScaleFrequency, Codes: map[string]*int{
				"Never":                                        intp(0),
				"Rarely (1-5 times per election)":              intp(1),
				"Sometimes (6-20 times per election)":          intp(2),
				"Often (21-50 times per election)":             intp(3),
				"Very often (more than 50 times per election)": intp(4),
			}},
			ScaleFrequencyIncidents: {Name: ScaleFrequencyIncidents, Codes: map[string]*int{
				"Never":                                intp(0),
				"Rarely (1-10 incidents per election)": intp(1),
				"Sometimes (11-50 incidents per election)":          intp(2),
				"Often (51-200 incidents per election)":             intp(3),
				"Very often (more than 200 incidents per election)": intp(4),
			}},
			ScaleFraudIncidents: {Name: ScaleFraudIncidents, Codes: map[string]*int{
				"None":                   intp(0),
				"1-5 incidents":          intp(1),
				"6-10 incidents":         intp(2),
				"11-20 incidents":        intp(3),
				"More than 20 incidents": intp(4),
			}},
			ScaleStaffTime: {Name: ScaleStaffTime, Codes: map[string]*int{
				"Less than 5 total hours": intp(1),
				"5-20 hours":              intp(2),
				"21-50 hours":             intp(3),
				"51-100 hours":            intp(4),
				"More than 100 hours":     intp(5),
			}},
			ScaleHoursResolving: {Name: ScaleHoursResolving, Codes: map[string]*int{
				"Less than 10 hours":  intp(1),
				"10-50 hours":         intp(2),
				"51-100 hours":        intp(3),
				"101-200 hours":       intp(4),
				"More than 200 hours": intp(5),
			}},
			ScaleWorkforcePercentage: {Name: ScaleWorkforcePercentage, Codes: map[string]*int{
				"Less than 25%": intp(1),
				"25-50%":        intp(2),
				"51-75%":        intp(3),
				"More than 75%": intp(4),
			}},
			ScaleReturnRate: {Name: ScaleReturnRate, Codes: map[string]*int{
				"0-25%":   intp(1),
				"26-50%":  intp(2),
				"51-75%":  intp(3),
				"76-100%": intp(4),
			}},
			ScaleTechLevel: {Name: ScaleTechLevel, Codes: map[string]*int{
				"None":     intp(0),
				"Basic":    intp(1),
				"Moderate": intp(2),
				"Advanced": intp(3),
			}},
			ScaleWorkerInterest: {Name: ScaleWorkerInterest, Codes: map[string]*int{
				"Yes, frequently requested":   intp(4),
				"Yes, occasionally mentioned": intp(3),
				"Rarely discussed":            intp(2),
				"Never raised":                intp(1),
				"Don't know":                  nil,
			}},
		},
		Regions: map[string][]string{
			RegionAfrica: {
				"Kenya", "Uganda", "Tanzania", "Tanzania (Zanzibar)", "Somaliland",
				"Lesotho", "Sierra Leone", "Botswana", "Nigeria", "Mauritania",
				"Ethiopia",
			},
			RegionAsiaPacific: {
				"Pakistan", "Maldives", "Taiwan", "Vanuatu", "Bangladesh",
				"Bhutan", "India",
			},
			RegionEurope: {
				"Albania", "Serbia", "Lithuania", "Armenia",
				"Europe/Eurasia (Regional)",
			},
			RegionAmericas: {
				"United States", "Suriname", "Antigua & Barbuda",
			},
		},
		CountryAliases: map[string]string{
			"TAIWAN":                    "Taiwan",
			"UGANDA":                    "Uganda",
			"LESOTHO":                   "Lesotho",
			"NIGERIA":                   "Nigeria",
			"NIGERIA / AFRICA":          "Nigeria",
			"nigeria":                   "Nigeria",
			"Antigua 🇦🇬 and Barbuda":    "Antigua & Barbuda",
			"Antigua":                   "Antigua & Barbuda",
			"Mauritanie":                "Mauritania",
			"Europe and Eurasia region": "Europe/Eurasia (Regional)",
			"Karnataka":                 "India",
			"Zanzibar":                  "Tanzania (Zanzibar)",
		},
		FieldRules: defaultFieldRules(),
		SevereLimitations: []string{
			"Unreliable electricity",
			"Limited/no internet connectivity",
			"Limited computer access",
			"Limited technical staff",
		},
	}
}

// TechLevelFieldPrefix is the field-name prefix shared by the per-topic
// technology-level matrix fields ("tech_level" rule plus topic slug).
const TechLevelFieldPrefix = "tech_level_"

// defaultFieldRules covers the survey's question stems in survey order.
// Kind values mirror the schema package's encoding kinds; "matrix_prefix"
// marks a matrix group whose per-topic fields get the rule's Field as prefix.
func defaultFieldRules() []FieldRule {
	return []FieldRule{
		// Credential verification
		{Match: "fraudulent credential", Field: "fraud_incidents", Scale: ScaleFraudIncidents, Area: AreaCredentialVerification},
		{Match: "verifying the credentials", Field: "credential_verification_hours", Scale: ScaleStaffTime, Area: AreaCredentialVerification},
		{Match: "challenges with your current credential", Field: "credential_challenges", Area: AreaCredentialVerification, Kind: "multi_select"},

		// Temporary workforce
		{Match: "percentage of your election workforce", Field: "temp_workforce_percentage", Scale: ScaleWorkforcePercentage, Area: AreaTemporaryWorkforce},
		{Match: "hours spent on each activity", Field: "hours_activity", Kind: "matrix_numeric", Area: AreaTemporaryWorkforce},
		{Match: "composition of your temporary workforce", Field: "worker_composition", Kind: "matrix_numeric", Area: AreaTemporaryWorkforce},
		{Match: "challenges in managing temporary", Field: "workforce_challenges", Area: AreaTemporaryWorkforce, Kind: "multi_select"},

		// Training systems
		{Match: "verify whether a worker completed training", Field: "training_verification_frequency", Scale: ScaleFrequency, Area: AreaTrainingSystems},
		{Match: "training records are lost", Field: "lost_record_handling", Area: AreaTrainingSystems},
		{Match: "resolving training record", Field: "hours_resolving_training", Scale: ScaleHoursResolving, Area: AreaTrainingSystems},
		{Match: "confident are you in your training record", Field: "training_system_confidence", Scale: ScaleConfidence, Area: AreaTrainingSystems},

		// Documentation
		{Match: "document chain of custody", Field: "documentation_methods", Kind: "multi_select"},
		{Match: "confidence in your documentation", Field: "doc_confidence", Kind: "matrix_prefix", Scale: ScaleConfidence},
		{Match: "challenges with documentation", Field: "documentation_challenges_text", Kind: "open_text"},

		// Data synchronisation
		{Match: "conflicting information", Field: "conflicting_info_frequency", Scale: ScaleFrequencyIncidents, Area: AreaDataSynchronization},
		{Match: "provisional ballot", Field: "provisional_ballot_tracking", Area: AreaDataSynchronization},
		{Match: "information to synchronise", Field: "sync_time", Area: AreaDataSynchronization},
		{Match: "confident are you that all polling locations", Field: "sync_system_confidence", Scale: ScaleConfidence, Area: AreaDataSynchronization},

		// Technology infrastructure
		{Match: "level of technology", Field: "tech_level", Kind: "matrix_prefix", Scale: ScaleTechLevel, Area: AreaInfrastructure},
		{Match: "infrastructure limitations", Field: "infrastructure_limitations", Area: AreaInfrastructure, Kind: "multi_select"},
		{Match: "barriers to adopting new technology", Field: "tech_adoption_barriers_text", Kind: "open_text"},

		// Workforce retention
		{Match: "workers return to work", Field: "worker_return_rate", Scale: ScaleReturnRate},
		{Match: "technologies has your organisation explored", Field: "technologies_explored", Kind: "multi_select"},
		{Match: "impact on worker retention", Field: "retention_impact", Kind: "matrix_prefix", Scale: ScaleImpact},
		{Match: "interest in digital credentials", Field: "worker_interest_credentials", Scale: ScaleWorkerInterest},

		// Priorities & support
		{Match: "top 3 priorities", Field: "priority", Kind: "open_list"},
		{Match: "external support", Field: "external_support_needed", Kind: "multi_select"},
		{Match: "concerns about implementing", Field: "implementation_concerns_text", Kind: "open_text"},
		{Match: "one change to improve", Field: "single_change_suggestion_text", Kind: "open_text"},

		// Demographics
		{Match: "country/jurisdiction", Field: "country", Kind: "demographic"},
		{Match: "approximate number of temporary workers", Field: "temp_workers_count", Kind: "numeric_open"},
		{Match: "elections managed annually", Field: "elections_annually", Kind: "numeric_open"},
		{Match: "willing to participate", Field: "followup_willing"},
	}
}

// Pain-point areas, in reporting order.
const (
	AreaCredentialVerification = "credential_verification"
	AreaTemporaryWorkforce     = "temporary_workforce"
	AreaTrainingSystems        = "training_systems"
	AreaDataSynchronization    = "data_synchronization"
	AreaInfrastructure         = "infrastructure"
)

// Areas lists the five pain-point areas in canonical order.
func Areas() []string {
	return []string{
		AreaCredentialVerification,
		AreaTemporaryWorkforce,
		AreaTrainingSystems,
		AreaDataSynchronization,
		AreaInfrastructure,
	}
}
