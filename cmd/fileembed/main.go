package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fileembed/internal/core"

	"github.com/spf13/cobra"
)

var (
	serverURL  string
	timeout    time.Duration
	author     string
	authorIcon string
	outputPath string
)

var rootCmd = &cobra.Command{
	Use:           "fileembed",
	Short:         "Share a file through a FileEmbed server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload one file and print its share link",
	RunE: func(cmd *cobra.Command, args []string) error {
		parsed, err := core.ParseArgs(args)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Encoding %s (%d bytes)...\n", filepath.Base(parsed.FullPath), parsed.Size)
		local, err := core.EncodeFile(parsed.FullPath)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", parsed.FullPath, err)
		}

		client := core.NewClient(serverURL, timeout)
		resp, err := client.Submit(cmd.Context(), core.SubmitRequest{
			Name:       local.Name,
			Content:    local.Content,
			Author:     author,
			AuthorIcon: authorIcon,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Uploaded %s (%s, %d bytes)\n", resp.Name, resp.MimeType, resp.Size)
		fmt.Fprintln(cmd.OutOrStdout(), resp.URL)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show metadata for a shared file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := core.NewClient(serverURL, timeout).Info(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name:     %s\n", info.Name)
		fmt.Fprintf(out, "Type:     %s\n", info.MimeType)
		fmt.Fprintf(out, "Size:     %d bytes\n", info.Size)
		fmt.Fprintf(out, "Preview:  %s\n", info.Preview)
		fmt.Fprintf(out, "Uploaded: %s\n", info.CreatedAt.Format(time.RFC3339))
		if info.Author != "" {
			fmt.Fprintf(out, "Author:   %s\n", info.Author)
		}
		fmt.Fprintf(out, "Link:     %s\n", info.ViewURL)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a shared file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tmp, err := os.CreateTemp(".", ".fileembed-*")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())

		name, err := core.NewClient(serverURL, timeout).Download(cmd.Context(), args[0], tmp)
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}

		dest := outputPath
		if dest == "" {
			dest = filepath.Base(name)
		}
		if err := os.Rename(tmp.Name(), dest); err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Saved %s\n", dest)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("FILEEMBED_SERVER", "http://localhost:8080"), "FileEmbed server URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")

	uploadCmd.Flags().StringVar(&author, "author", "", "author name shown on the viewer page")
	uploadCmd.Flags().StringVar(&authorIcon, "author-icon", "", "author icon URL shown on the viewer page")
	downloadCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (defaults to the original filename)")

	rootCmd.AddCommand(uploadCmd, infoCmd, downloadCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
