package orderkuota

import "fmt"

// Application identity the provider expects in every payload. These mirror
// the values shipped with the provider's Android app.
const (
	DefaultAppRegID       = "di309HvATsaiCppl5eDpoc:APA91bFUcTOH8h2XHdPRz2qQ5Bezn-3_TaycFcJ5pNLGWpmaxheQP9Ri0E56wLHz0_b1vcss55jbRQXZgc5loSfBdNa5nZJZVMlk7GS1JDMGyFUVvpcwXbMDg8tjKGZAurCGR4kDMDRJ"
	DefaultAppVersionCode = "250314"
	DefaultAppVersionName = "25.03.27"
)

// Identity is the immutable app identity injected into the service at startup
type Identity struct {
	AppRegID       string `json:"app_reg_id" mapstructure:"app_reg_id"`
	AppVersionCode string `json:"app_version_code" mapstructure:"app_version_code"`
	AppVersionName string `json:"app_version_name" mapstructure:"app_version_name"`
}

// DefaultIdentity returns the identity of the current provider app release
func DefaultIdentity() Identity {
	return Identity{
		AppRegID:       DefaultAppRegID,
		AppVersionCode: DefaultAppVersionCode,
		AppVersionName: DefaultAppVersionName,
	}
}

// Validate checks that every identity field is set
func (i Identity) Validate() error {
	if i.AppRegID == "" {
		return fmt.Errorf("app_reg_id is required")
	}
	if i.AppVersionCode == "" {
		return fmt.Errorf("app_version_code is required")
	}
	if i.AppVersionName == "" {
		return fmt.Errorf("app_version_name is required")
	}
	return nil
}
