package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rzbill/modeldb/internal/runtime"
	"github.com/rzbill/modeldb/pkg/model"
	"github.com/spf13/cobra"
)

// ErrNotFound is returned by get for an absent document.
var ErrNotFound = errors.New("document not found")

func newPutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store a document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString("id")
			tags, _ := cmd.Flags().GetStringSlice("tag")
			body, _ := cmd.Flags().GetString("body")
			if id == "" {
				return errors.New("--id is required")
			}
			doc := &Document{ID: id, Tags: tags}
			if body != "" {
				if !json.Valid([]byte(body)) {
					return errors.New("--body must be valid JSON")
				}
				doc.Body = json.RawMessage(body)
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				key, err := rt.DB().Put(ctx, doc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "stored", key)
				return nil
			})
		},
	}
	cmd.Flags().String("id", "", "Document id")
	cmd.Flags().StringSlice("tag", nil, "Tag to index the document under (repeatable)")
	cmd.Flags().String("body", "", "Document body as JSON")
	return cmd
}

// newImportCommand stores newline-delimited JSON documents from stdin in one
// transaction.
func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Store newline-delimited JSON documents from stdin atomically",
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := readDocuments(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				tx, err := rt.DB().NewTransaction()
				if err != nil {
					return err
				}
				defer tx.Close()
				for _, d := range docs {
					if _, err := tx.Put(d); err != nil {
						return fmt.Errorf("document %q: %w", d.ID, err)
					}
				}
				if err := tx.Write(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents\n", tx.Len())
				return nil
			})
		},
	}
}

func readDocuments(r io.Reader) ([]*Document, error) {
	var docs []*Document
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		d := &Document{}
		if err := json.Unmarshal([]byte(text), d); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if d.ID == "" {
			return nil, fmt.Errorf("line %d: missing id", line)
		}
		docs = append(docs, d)
	}
	return docs, sc.Err()
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
				m, err := rt.DB().Get(DocumentKey(args[0]))
				if err != nil {
					return err
				}
				if m == nil {
					return fmt.Errorf("%w: %s", ErrNotFound, args[0])
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(m)
			})
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				tx, err := rt.DB().NewTransaction()
				if err != nil {
					return err
				}
				defer tx.Close()
				for _, id := range args {
					if err := tx.Delete(DocumentKey(id)); err != nil {
						return err
					}
				}
				if err := tx.Write(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d documents\n", len(args))
				return nil
			})
		},
	}
}

func newFindCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find",
		Short: "List the ids of documents carrying a tag",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tag, _ := cmd.Flags().GetString("tag")
			if tag == "" {
				return errors.New("--tag is required")
			}
			return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
				keys, err := rt.DB().FindByIndex(DocumentType, TagIndex, model.ValueOf(tag))
				if err != nil {
					return err
				}
				printIDs(cmd.OutOrStdout(), keys)
				return nil
			})
		},
	}
	cmd.Flags().String("tag", "", "Tag to look up")
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the ids of every document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
				keys, err := rt.DB().Keys(DocumentType)
				if err != nil {
					return err
				}
				printIDs(cmd.OutOrStdout(), keys)
				return nil
			})
		},
	}
}

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the database opens and answers reads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				if err := rt.CheckHealth(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
}

func printIDs(w io.Writer, keys []model.Key) {
	for _, k := range keys {
		fmt.Fprintln(w, k.ID)
	}
}
