package constants

// WeightTolerance is the float tolerance used when checking that weighted
// criteria add up to 100.
const WeightTolerance = 0.01

// TargetTotalWeight is the total criterion weight expected for weighted templates.
const TargetTotalWeight = 100.0

const (
	// Settings keys for the local settings table
	SettingAPIURL  = "api_url"
	SettingUserID  = "user_id"
	SettingIsAdmin = "is_admin"

	// Publish change summary used when none is given
	DefaultChangeSummary = "Initial version"

	// Pass status values returned by the backend
	PassStatusPass = "pass"
	PassStatusFail = "fail"
)
