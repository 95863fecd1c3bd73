package models

import "time"

// ServiceSlot holds the settings of one downstream AI service integration.
type ServiceSlot struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
	Voice    string `json:"voice,omitempty"`
}

// IsEmpty reports whether the slot carries no settings at all.
func (s *ServiceSlot) IsEmpty() bool {
	return s == nil || *s == (ServiceSlot{})
}

// ServiceConfiguration is the per-user configuration with one slot for each of
// the language-model, text-to-speech and speech-to-text services.
type ServiceConfiguration struct {
	LLM *ServiceSlot `json:"llm,omitempty"`
	TTS *ServiceSlot `json:"tts,omitempty"`
	STT *ServiceSlot `json:"stt,omitempty"`
}

// IsEmpty is true only when all three slots are unset.
func (c ServiceConfiguration) IsEmpty() bool {
	return c.LLM.IsEmpty() && c.TTS.IsEmpty() && c.STT.IsEmpty()
}

// Masked returns a copy with key material reduced to its last four characters.
func (c ServiceConfiguration) Masked() ServiceConfiguration {
	mask := func(s *ServiceSlot) *ServiceSlot {
		if s == nil {
			return nil
		}

		out := *s
		if n := len(out.APIKey); n > 4 { //nolint:mnd
			out.APIKey = "****" + out.APIKey[n-4:]
		} else if n > 0 {
			out.APIKey = "****"
		}

		return &out
	}

	return ServiceConfiguration{LLM: mask(c.LLM), TTS: mask(c.TTS), STT: mask(c.STT)}
}

// UserConfiguration persists the ServiceConfiguration of a single user.
type UserConfiguration struct {
	ID            uint64               `gorm:"primaryKey"`
	UserID        uint64               `gorm:"not null;uniqueIndex"`
	Configuration ServiceConfiguration `gorm:"serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the database table name for the UserConfiguration model.
func (UserConfiguration) TableName() string {
	return "user_configurations"
}
