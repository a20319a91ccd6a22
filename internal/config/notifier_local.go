//go:build !gcloud

package config

// Validate checks notifier settings for local builds. The webhook URL is
// optional: an unset URL disables dispatch rather than failing startup.
func (c *NotifierConfig) Validate() error {
	return nil
}
