package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

var documentCmd = &cobra.Command{
	Use:     "doc",
	Aliases: []string{"document"},
	Short:   "Manage stored documents",
	Long:    `Upsert, inspect, list, delete, and re-ingest report documents.`,
}

var documentUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Insert or replace a document",
	Long: `Stores a document body read from --file ("-" for stdin).
With --ingest the body is also chunked and embedded.`,
	Args: cobra.NoArgs,
	RunE: runDocumentUpsert,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentLatestCmd = &cobra.Command{
	Use:   "latest [type]",
	Short: "Show the newest document of a type",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentLatest,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentIngestCmd = &cobra.Command{
	Use:   "ingest [doc-id]",
	Short: "Chunk and embed a stored document",
	Long: `Replaces the chunk set of a document. The stored body is used unless
--file is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentIngest,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var (
	docID     string
	docType   string
	docTitle  string
	docDate   string
	docFile   string
	docIngest bool
	docChunks bool
	docTypes  []string
	docLimit  int
)

func init() {
	documentUpsertCmd.Flags().StringVar(&docID, "id", "", "document id")
	documentUpsertCmd.Flags().StringVar(&docType, "type", "CUSTOM", "document type (RULE, DAILY, CUSTOM)")
	documentUpsertCmd.Flags().StringVar(&docTitle, "title", "", "document title")
	documentUpsertCmd.Flags().StringVar(&docDate, "date", "", "report date (YYYY-MM-DD)")
	documentUpsertCmd.Flags().StringVarP(&docFile, "file", "f", "-", "body file, - for stdin")
	documentUpsertCmd.Flags().BoolVar(&docIngest, "ingest", true, "chunk and embed after storing")
	_ = documentUpsertCmd.MarkFlagRequired("id")

	documentGetCmd.Flags().BoolVar(&docChunks, "chunks", false, "also list stored chunks")

	documentListCmd.Flags().StringSliceVarP(&docTypes, "type", "t", nil, "restrict to document types")
	documentListCmd.Flags().IntVarP(&docLimit, "limit", "n", 50, "maximum number of documents")

	documentIngestCmd.Flags().StringVarP(&docFile, "file", "f", "", "body file to ingest instead of the stored body")

	documentCmd.AddCommand(documentUpsertCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentLatestCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentIngestCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentUpsert(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	dt, err := domain.ParseDocType(docType)
	if err != nil {
		return err
	}
	body, err := readBody(cmd, docFile)
	if err != nil {
		return err
	}

	in := driving.UpsertDocumentInput{ID: docID, Type: dt, Title: docTitle, Body: body}
	if docDate != "" {
		d, err := domain.ParseDate(docDate)
		if err != nil {
			return err
		}
		in.ReportDate = &d
	}

	if !docIngest {
		res, err := documentService.Upsert(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("failed to upsert document: %w", err)
		}
		cmd.Printf("Stored %s document %s\n", dt, res.DocID)
		return nil
	}

	rag := ragSettings()
	res, err := documentService.Save(cmd.Context(), in, rag.ChunkMaxChars, rag.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	cmd.Printf("Stored %s document %s\n", dt, res.DocID)
	cmd.Printf("Ingested %d chunks\n", res.ChunkCount)
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	printDocument(cmd, doc)

	if !docChunks {
		return nil
	}
	chunks, err := documentService.Chunks(cmd.Context(), doc.ID)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}
	cmd.Printf("\nChunks (%d):\n", len(chunks))
	for _, c := range chunks {
		cmd.Printf("  [%d] %s\n", c.Index, snippet(c.Content, 100))
	}
	return nil
}

func runDocumentLatest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	dt, err := domain.ParseDocType(args[0])
	if err != nil {
		return err
	}
	doc, err := documentService.LatestByType(cmd.Context(), dt)
	if err != nil {
		return fmt.Errorf("failed to get latest %s document: %w", dt, err)
	}
	printDocument(cmd, doc)
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	var types []domain.DocType
	for _, t := range docTypes {
		dt, err := domain.ParseDocType(t)
		if err != nil {
			return err
		}
		types = append(types, dt)
	}

	docs, err := documentService.List(cmd.Context(), types, docLimit)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		date := docs[i].ReportDateString()
		if date == "" {
			date = "----------"
		}
		cmd.Printf("  %s  %-7s %-28s %s\n", date, docs[i].Type, docs[i].ID, docs[i].Title)
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocuments
	}

	var body string
	if docFile != "" {
		b, err := readBody(cmd, docFile)
		if err != nil {
			return err
		}
		body = b
	} else {
		doc, err := documentService.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}
		body = doc.Body
	}

	rag := ragSettings()
	n, err := documentService.Ingest(cmd.Context(), args[0], body, rag.ChunkMaxChars, rag.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("failed to ingest document: %w", err)
	}
	cmd.Printf("Ingested %d chunks into %s\n", n, args[0])
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocuments
	}
	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}

func printDocument(cmd *cobra.Command, doc *domain.Document) {
	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Type:     %s\n", doc.Type)
	cmd.Printf("  Title:    %s\n", doc.Title)
	if d := doc.ReportDateString(); d != "" {
		cmd.Printf("  Date:     %s\n", d)
	}
	cmd.Printf("  Saved:    %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Println()
	cmd.Println(doc.Body)
}

// readBody reads a file, or the command's stdin for "-".
func readBody(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	body := string(data)
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("%w: empty document body", domain.ErrInvalidInput)
	}
	return body, nil
}

// ragSettings returns the configured chunking policy, or the defaults.
func ragSettings() domain.RAGSettings {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			return s.RAG
		}
	}
	return domain.DefaultAppSettings().RAG
}
