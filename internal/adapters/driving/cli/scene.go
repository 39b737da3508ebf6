package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var sceneCmd = &cobra.Command{
	Use:   "scene [book-id] [chapter] [event]",
	Short: "Resolve the scene image for an event",
	Long: `Returns the path of the rendered scene image for one event,
generating and caching it on first access. When image synthesis is not
configured or fails, the placeholder reference is returned instead.`,
	Args: cobra.ExactArgs(3),
	RunE: runScene,
}

var portraitCmd = &cobra.Command{
	Use:   "portrait [book-id] [character]",
	Short: "Resolve the portrait image for a character",
	Long: `Returns the path of the rendered portrait for one roster character,
generating and caching it on first access. When image synthesis is not
configured or fails, the placeholder reference is returned instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runPortrait,
}

func init() {
	rootCmd.AddCommand(sceneCmd, portraitCmd)
}

func runScene(cmd *cobra.Command, args []string) error {
	if sceneService == nil {
		return errors.New("scene service not configured")
	}

	chapter, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid chapter number %q", args[1])
	}
	event, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid event number %q", args[2])
	}

	ref, err := sceneService.Scene(context.Background(), args[0], chapter, event)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}

	cmd.Println(ref)
	return nil
}

func runPortrait(cmd *cobra.Command, args []string) error {
	if sceneService == nil {
		return errors.New("scene service not configured")
	}

	ref, err := sceneService.Portrait(context.Background(), args[0], args[1])
	if err != nil {
		return describeNotFound(err, "character", args[1])
	}

	cmd.Println(ref)
	return nil
}
