package common

import (
	"context"

	"careermatch/internal/ai"
	"careermatch/internal/errors"
	"careermatch/internal/store"
	"careermatch/internal/types"
)

// ProfileOperationFunc computes a result for a stored profile. Token usage
// is nil for operations that do not call the advisor.
type ProfileOperationFunc[Output any] func(ctx context.Context, profile types.Profile) (Output, *ai.TokenUsage, error)

// RunProfileCommand looks up a profile by name, runs operation on it and
// writes the formatted result.
func RunProfileCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	profiles store.ProfileStore,
	name string,
	operation ProfileOperationFunc[Output],
	outputHandler *OutputHandler,
) (Output, error) {
	var zero Output

	profile, err := store.Find(ctx, profiles, name)
	if err != nil {
		return zero, err
	}
	logger.Debug("Profile loaded", "profile", profile.Name)

	result, tokenUsage, err := operation(ctx, profile)
	if err != nil {
		return zero, err
	}

	if tokenUsage != nil {
		logger.Info("AI token usage",
			"input_tokens", tokenUsage.InputTokens,
			"output_tokens", tokenUsage.OutputTokens,
			"total_tokens", tokenUsage.TotalTokens)
	}

	if outputHandler == nil {
		outputHandler = NewOutputHandler(logger)
	}
	return result, outputHandler.HandleOutput(result, cmdConfig)
}
