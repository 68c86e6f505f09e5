package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"decensor/pkg/decensor"
	"decensor/pkg/logger"
	"decensor/pkg/mirror"
)

var resolveOutputFile string

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve [file]",
	Short: "Decensor posts from a Danbooru API response",
	Long: `Decensor posts from a Danbooru API response.

Reads a JSON array of posts (or a single post object) from the given
file, or from stdin when no file is provided, and writes the decensored
posts as JSON to stdout. Posts that already carry an md5, and posts the
dataset does not know, pass through unchanged.

The dataset mirror is refreshed first if it has not been synced today.`,
	Example: `  # Pipe an API response through the resolver
  curl -s 'https://danbooru.donmai.us/posts.json?tags=id:2912683' | decensor resolve

  # Resolve posts saved to a file
  decensor resolve posts.json -o resolved.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVarP(&resolveOutputFile, "output", "o", "", "write resolved posts to a file instead of stdout")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	var input io.Reader = os.Stdin
	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		input = file
	}

	posts, single, err := decodePosts(input)
	if err != nil {
		return fmt.Errorf("failed to decode posts: %w", err)
	}

	m := mirror.New(cfg, log)
	d := decensor.New(m, cfg.Danbooru.SiteBaseURL, log)

	resolved := d.ResolveAll(cmd.Context(), posts)

	var output io.Writer = os.Stdout
	if resolveOutputFile != "" {
		file, err := os.Create(resolveOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		output = file
	}

	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	if single {
		return encoder.Encode(resolved[0])
	}
	return encoder.Encode(resolved)
}

// decodePosts reads either a JSON array of posts or a single post object.
// single reports which shape the input had so the output can match it.
func decodePosts(r io.Reader) (posts []decensor.Post, single bool, err error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return nil, false, err
	}

	delim, ok := token.(json.Delim)
	if !ok {
		return nil, false, fmt.Errorf("expected a JSON object or array, got %v", token)
	}

	switch delim {
	case '[':
		for decoder.More() {
			var post decensor.Post
			if err := decoder.Decode(&post); err != nil {
				return nil, false, err
			}
			posts = append(posts, post)
		}
		return posts, false, nil
	case '{':
		// Re-read the object from the buffered remainder
		var post decensor.Post
		post = make(decensor.Post)
		for decoder.More() {
			keyToken, err := decoder.Token()
			if err != nil {
				return nil, false, err
			}
			key, ok := keyToken.(string)
			if !ok {
				return nil, false, fmt.Errorf("expected object key, got %v", keyToken)
			}
			var value interface{}
			if err := decoder.Decode(&value); err != nil {
				return nil, false, err
			}
			post[key] = value
		}
		return []decensor.Post{post}, true, nil
	default:
		return nil, false, fmt.Errorf("expected a JSON object or array")
	}
}
