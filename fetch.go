package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lyricloud/services"
)

func cmdFetch(newApp func() (*app, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one song, print its lyrics and write the cloud PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			title, _ := cmd.Flags().GetString("title")
			artist, _ := cmd.Flags().GetString("artist")
			out, _ := cmd.Flags().GetString("out")
			quiet, _ := cmd.Flags().GetBool("quiet")

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.pipeline.Run(cmd.Context(), title, artist)
			if err != nil {
				color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), services.UserMessage(err))
				return err
			}

			if err := os.WriteFile(out, res.Cloud.PNG, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			w := cmd.OutOrStdout()
			if !quiet {
				color.New(color.Bold).Fprintf(w, "%s — %s\n\n", res.Query.Artist, res.Query.Title)
				fmt.Fprintln(w, res.Lyrics.Text)
				fmt.Fprintln(w)
			}
			color.New(color.FgGreen).Fprintf(w, "✅ %s written (%s, %d words, source %s)\n",
				out, humanize.Bytes(uint64(len(res.Cloud.PNG))), len(res.Cloud.Words), res.Source)
			return nil
		},
	}
	cmd.Flags().StringP("title", "t", "", "Song title")
	cmd.Flags().StringP("artist", "a", "", "Artist (defaults to DEFAULT_ARTIST)")
	cmd.Flags().StringP("out", "o", "cloud.png", "Where to write the PNG")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print the lyrics")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
