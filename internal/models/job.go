package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinTextLength is the minimum number of characters for the job description and prompt.
const MinTextLength = 20

var validate = validator.New()

// JobConfig is the configuration shared by every file of a batch.
//
// JobDescription is accepted and kept with the batch but is never sent to a
// provider; only Prompt is forwarded as the instruction.
type JobConfig struct {
	JobDescription string                  `json:"jobDescription" validate:"required,min=20"`
	Prompt         string                  `json:"prompt" validate:"required,min=20"`
	Models         map[ProviderName]string `json:"models"`
}

// Normalize trims the text fields and drops blank model identifiers.
func (j *JobConfig) Normalize() {
	j.JobDescription = strings.TrimSpace(j.JobDescription)
	j.Prompt = strings.TrimSpace(j.Prompt)
	for name, model := range j.Models {
		model = strings.TrimSpace(model)
		if model == "" {
			delete(j.Models, name)
			continue
		}
		j.Models[name] = model
	}
}

// Validate normalizes the config and checks the presence and length rules.
func (j *JobConfig) Validate() error {
	j.Normalize()
	if err := validate.Struct(j); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			field := jsonFieldName(fe.Field())
			switch fe.Tag() {
			case "required":
				return fmt.Errorf("%s is required", field)
			case "min":
				return fmt.Errorf("%s must be at least %d characters", field, MinTextLength)
			}
			return fmt.Errorf("%s is invalid", field)
		}
		return err
	}
	for name := range j.Models {
		if !name.IsValid() {
			return fmt.Errorf("unknown provider %q", name)
		}
	}
	return nil
}

// ModelFor returns the configured model for a provider, or fallback when none is set.
func (j *JobConfig) ModelFor(name ProviderName, fallback string) string {
	if j == nil || j.Models == nil {
		return fallback
	}
	if m, ok := j.Models[name]; ok && m != "" {
		return m
	}
	return fallback
}

// Clone returns a copy that shares no map with the receiver.
func (j *JobConfig) Clone() *JobConfig {
	if j == nil {
		return nil
	}
	out := &JobConfig{
		JobDescription: j.JobDescription,
		Prompt:         j.Prompt,
		Models:         make(map[ProviderName]string, len(j.Models)),
	}
	for k, v := range j.Models {
		out.Models[k] = v
	}
	return out
}

func jsonFieldName(field string) string {
	switch field {
	case "JobDescription":
		return "jobDescription"
	case "Prompt":
		return "prompt"
	}
	return strings.ToLower(field)
}
