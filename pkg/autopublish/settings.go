package autopublish

import (
	"mercator-hq/autopublish/pkg/config"
)

// ActionRule selects candidates by type and state and names the transition
// applied to them.
type ActionRule struct {
	PortalTypes   []string `json:"portal_types"`
	InitialStates []string `json:"initial_states"`
	Transition    string   `json:"transition"`
}

// Settings is the snapshot of configuration a run works from.
type Settings struct {
	DryRun                       bool
	EmailLog                     []string
	PublishActions               []ActionRule
	RetractActions               []ActionRule
	OverwriteExpirationOnRetract bool

	// ExpireOnTransitions lists the transitions that stamp an expiration date.
	ExpireOnTransitions []string

	// MailFrom is the sender address of the audit mail.
	MailFrom string
}

// SettingsProvider returns a fresh settings snapshot.
type SettingsProvider interface {
	Settings() (*Settings, error)
}

// SettingsFunc adapts a function to SettingsProvider.
type SettingsFunc func() (*Settings, error)

// Settings calls f.
func (f SettingsFunc) Settings() (*Settings, error) {
	return f()
}

// FromConfig reads settings from the global configuration on every call.
// It returns ErrSettingsUnavailable until the configuration is initialized.
func FromConfig() SettingsProvider {
	return SettingsFunc(func() (*Settings, error) {
		cfg := config.GetConfig()
		if cfg == nil {
			return nil, ErrSettingsUnavailable
		}
		return NewSettings(cfg), nil
	})
}

// StaticSettings always returns a copy of s.
func StaticSettings(s *Settings) SettingsProvider {
	return SettingsFunc(func() (*Settings, error) {
		if s == nil {
			return nil, ErrSettingsUnavailable
		}
		return s.clone(), nil
	})
}

// NewSettings builds a snapshot from cfg.
func NewSettings(cfg *config.Config) *Settings {
	ap := cfg.Autopublish
	return &Settings{
		DryRun:                       ap.DryRun,
		EmailLog:                     append([]string(nil), ap.EmailLog...),
		PublishActions:               convertRules(ap.PublishActions),
		RetractActions:               convertRules(ap.RetractActions),
		OverwriteExpirationOnRetract: ap.OverwriteExpirationOnRetract,
		ExpireOnTransitions:          append([]string(nil), ap.ExpireOnTransitions...),
		MailFrom:                     cfg.Mail.From,
	}
}

func convertRules(rules []config.ActionRule) []ActionRule {
	out := make([]ActionRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, ActionRule{
			PortalTypes:   append([]string(nil), r.PortalTypes...),
			InitialStates: append([]string(nil), r.InitialState...),
			Transition:    r.Transition,
		})
	}
	return out
}

func (s *Settings) clone() *Settings {
	c := *s
	c.EmailLog = append([]string(nil), s.EmailLog...)
	c.ExpireOnTransitions = append([]string(nil), s.ExpireOnTransitions...)
	c.PublishActions = cloneRules(s.PublishActions)
	c.RetractActions = cloneRules(s.RetractActions)
	return &c
}

func cloneRules(rules []ActionRule) []ActionRule {
	if rules == nil {
		return nil
	}
	out := make([]ActionRule, len(rules))
	for i, r := range rules {
		out[i] = ActionRule{
			PortalTypes:   append([]string(nil), r.PortalTypes...),
			InitialStates: append([]string(nil), r.InitialStates...),
			Transition:    r.Transition,
		}
	}
	return out
}
