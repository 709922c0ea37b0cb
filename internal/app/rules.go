package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"scheduling-service/internal/apperrors"
	"scheduling-service/internal/availability"
)

func (a *App) ListRules(ctx context.Context, username string) ([]availability.Rule, error) {
	host, err := a.host(ctx, username)
	if err != nil {
		return nil, err
	}
	rules, err := a.rules.ListRules(ctx, host.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load availability", err)
	}
	if rules == nil {
		rules = []availability.Rule{}
	}
	return rules, nil
}

// ReplaceRules validates and stores the host's full weekly configuration.
// Intervals must be whole hours and at most one per weekday.
func (a *App) ReplaceRules(ctx context.Context, username string, inputs []RuleInput) ([]availability.Rule, error) {
	host, err := a.host(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := a.validateRules(inputs); err != nil {
		return nil, err
	}

	rules := make([]availability.Rule, 0, len(inputs))
	for _, in := range inputs {
		rules = append(rules, availability.Rule{
			HostID:      host.ID,
			WeekDay:     in.WeekDay,
			StartMinute: in.StartMinute,
			EndMinute:   in.EndMinute,
		})
	}

	saved, err := a.rules.ReplaceRules(ctx, host.ID, rules)
	if err != nil {
		return nil, apperrors.Internal("Failed to save availability", err)
	}
	a.log.Info("Availability updated", "host_id", host.ID, "rules", len(saved))
	return saved, nil
}

func (a *App) validateRules(inputs []RuleInput) error {
	seen := make(map[int]bool, len(inputs))
	for i, in := range inputs {
		if err := a.validate.Struct(in); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				return apperrors.BadRequest(fmt.Sprintf("interval %d: %s", i, describe(verrs[0])))
			}
			return apperrors.BadRequest(err.Error())
		}
		if seen[in.WeekDay] {
			return apperrors.BadRequest(fmt.Sprintf("interval %d: week_day %d configured twice", i, in.WeekDay))
		}
		seen[in.WeekDay] = true
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after start_minute", fe.Field())
	case "whole_hour":
		return fmt.Sprintf("%s must be a multiple of 60", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
