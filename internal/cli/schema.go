package cli

import (
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/spf13/cobra"
)

// payloads are the request and response bodies exchanged with the backend.
var payloads = map[string]any{
	"query":         backend.QueryRequest{},
	"translate":     backend.TranslateRequest{},
	"like":          backend.LikeRequest{},
	"comment":       backend.CommentRequest{},
	"speech":        backend.SpeechRequest{},
	"status":        backend.StatusResponse{},
	"transcription": backend.TranscriptionResponse{},
	"agents":        backend.AgentsResponse{},
	"session_info":  backend.SessionInfo{},
	"links":         backend.LinksResponse{},
	"stream_entry":  backend.StreamEntry{},
}

var schemaCmd = &cobra.Command{
	Use:   "schema [payload]",
	Short: "Print the JSON schema of a backend payload",
	Long: `Schema prints the JSON schema of one of the payloads exchanged with the
backend. Without an argument it lists the known payloads.`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return payloadNames(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, name := range payloadNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}

		schema, err := payloadSchema(args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), schema)
	},
}

func payloadNames() []string {
	names := make([]string, 0, len(payloads))
	for name := range payloads {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func payloadSchema(name string) (*jsonschema.Schema, error) {
	payload, ok := payloads[name]
	if !ok {
		return nil, fmt.Errorf("unknown payload %q", name)
	}
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(payload), nil
}
