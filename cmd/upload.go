// ABOUTME: Upload command for the blogpanel CLI
// ABOUTME: Sends an image to the backend and prints where it is served

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload PATH",
	Short: "Upload an image",
	Long:  `Upload a JPEG, PNG, GIF or WebP image for use in posts.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runUpload(ctx, os.Stdout, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

// uploadOutput is the --json shape of an upload
type uploadOutput struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// runUpload uploads the file at path and returns exit code
func runUpload(ctx context.Context, w io.Writer, path string) int {
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if info.IsDir() {
		fmt.Fprintf(w, "Error: %s is a directory\n", path)
		return exitError
	}

	e, code := setup(w)
	if e == nil {
		return code
	}
	if code := requireSession(ctx, w, e); code != exitOK {
		return code
	}

	res, err := e.api.UploadFile(ctx, path)
	if err != nil {
		return fail(w, e, err)
	}

	out := uploadOutput{Filename: res.Filename, URL: res.URL, Size: info.Size()}
	if out.Filename == "" {
		out.Filename = filepath.Base(path)
	}
	if IsJSONOutput() {
		return writeJSON(w, out)
	}
	fmt.Fprintf(w, "Uploaded %s (%s)\nURL: %s\n", out.Filename, humanize.IBytes(uint64(out.Size)), out.URL)
	return exitOK
}
