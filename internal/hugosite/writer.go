package hugosite

import (
	"fmt"
	"log/slog"
	"os"
	stdpath "path"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexeyismirnov/deep-crawl/internal/config"
	"github.com/alexeyismirnov/deep-crawl/internal/corpus"
	enginerrors "github.com/alexeyismirnov/deep-crawl/internal/errors"
	"github.com/alexeyismirnov/deep-crawl/internal/logfields"
	"github.com/alexeyismirnov/deep-crawl/internal/sitemap"
)

// Writer emits the content tree for one build. The whole tree goes
// into a sibling staging directory first and replaces the output
// directory with a rename, so a failed build never leaves a
// half-written site behind.
type Writer struct {
	site      config.SiteConfig
	output    config.OutputConfig
	converter *Converter
	now       func() time.Time

	stageDir string
}

func NewWriter(cfg *config.Config) *Writer {
	return &Writer{
		site:      cfg.Site,
		output:    cfg.Output,
		converter: NewConverter(),
		now:       time.Now,
	}
}

// Result summarizes one emission.
type Result struct {
	Pages    int // Article pages written
	Sections int // Index pages written, home included
	Output   string
}

// Emit writes the home page, every section index and every article
// page, then promotes the staged tree.
func (w *Writer) Emit(tree []*sitemap.Node) (*Result, error) {
	if err := w.beginStaging(); err != nil {
		return nil, enginerrors.EmitError("stage", err)
	}

	res := &Result{Output: w.output.Directory}
	if err := w.writeTree(tree, res); err != nil {
		w.abortStaging()
		return nil, err
	}

	if err := w.finalizeStaging(); err != nil {
		w.abortStaging()
		return nil, enginerrors.EmitError("promote", err)
	}

	slog.Info("Content tree emitted",
		logfields.Path(res.Output),
		slog.Int("pages", res.Pages),
		slog.Int("sections", res.Sections))
	return res, nil
}

func (w *Writer) writeTree(tree []*sitemap.Node, res *Result) error {
	if err := w.writeHomePage(tree); err != nil {
		return err
	}
	res.Sections++

	for _, node := range tree {
		if err := w.writeSection(node, res); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeHomePage(tree []*sitemap.Node) error {
	data, err := renderDocument(homeFrontMatter(w.site), w.homeBody(tree))
	if err != nil {
		return enginerrors.EmitError("home", err)
	}

	indexPath := filepath.Join(w.stageDir, "content", "_index.md")
	if err := os.WriteFile(indexPath, data, 0o644); err != nil {
		return enginerrors.EmitError("home", err)
	}
	slog.Info("Generated home page", logfields.Path(indexPath))
	return nil
}

func (w *Writer) writeSection(node *sitemap.Node, res *Result) error {
	dir := w.contentDir(node.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return enginerrors.EmitError("section", err)
	}

	data, err := renderDocument(sectionFrontMatter(node), sectionIndexBody(node))
	if err != nil {
		return enginerrors.EmitError("section", err)
	}

	indexPath := filepath.Join(dir, "_index.md")
	if err := os.WriteFile(indexPath, data, 0o644); err != nil {
		return enginerrors.EmitError("section", err)
	}
	res.Sections++
	slog.Info("Generated section index", logfields.Path(indexPath), logfields.Category(node.Name))

	for i, doc := range node.Documents {
		if err := w.writePage(doc, i+1); err != nil {
			return err
		}
		res.Pages++
	}

	for _, child := range node.Children {
		if err := w.writeSection(child, res); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writePage(doc *corpus.Document, weight int) error {
	if doc.CanonicalPath == "" {
		return enginerrors.EmitError("page", fmt.Errorf("document %s has no canonical path", doc.NormalizedURL))
	}

	body := strings.TrimSpace(doc.Content)
	switch {
	case body == "":
		body = "Содержимое недоступно."
	case LooksLikeHTML(body):
		converted, err := w.converter.Convert(body)
		if err != nil || converted == "" {
			slog.Warn("HTML conversion failed, emitting markup as is",
				logfields.URL(doc.OriginalURL), logfields.Error(err))
		} else {
			body = converted
		}
	}

	var b strings.Builder
	if doc.OriginalURL != "" {
		fmt.Fprintf(&b, "**Оригинальный URL:** %s\n\n", doc.OriginalURL)
	}
	b.WriteString(body)
	b.WriteString("\n")

	data, err := renderDocument(pageFrontMatter(doc, weight, w.now()), b.String())
	if err != nil {
		return enginerrors.EmitError("page", err)
	}

	target := w.contentFile(doc.CanonicalPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return enginerrors.EmitError("page", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return enginerrors.EmitError("page", err)
	}
	slog.Debug("Generated content file", logfields.Path(target), logfields.URL(doc.NormalizedURL))
	return nil
}

// sectionIndexBody lists subsections and articles so hidden pages stay
// reachable without sidebar entries.
func sectionIndexBody(node *sitemap.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", node.Label)

	if len(node.Children) > 0 {
		total := len(node.Documents)
		for _, child := range node.Children {
			total += len(child.Documents)
		}
		fmt.Fprintf(&b, "В этом разделе %d материалов в %d подразделах.\n\n", total, len(node.Children))

		b.WriteString("## Подразделы:\n\n")
		for _, child := range node.Children {
			fmt.Fprintf(&b, "- [%s](%s/) (%d материалов)\n", child.Label, child.Slug, len(child.Documents))
		}
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "В этом разделе %d материалов.\n\n", len(node.Documents))
	}

	if len(node.Documents) > 0 {
		b.WriteString("## Статьи в этом разделе:\n\n")
		for _, doc := range node.Documents {
			fmt.Fprintf(&b, "- [%s](%s/)\n", pageTitle(doc), stdpath.Base(doc.CanonicalPath))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (w *Writer) homeBody(tree []*sitemap.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", w.site.Title)
	b.WriteString("Архив материалов о Православной Церкви в Китае.\n\n")
	b.WriteString("## Разделы сайта\n\n")

	for _, node := range tree {
		total := len(node.Documents)
		for _, child := range node.Children {
			total += len(child.Documents)
		}
		fmt.Fprintf(&b, "- [%s](%s/) (%d материалов)\n", node.Label, node.Slug, total)
	}
	return b.String()
}

func (w *Writer) contentDir(sitePath string) string {
	return filepath.Join(w.stageDir, "content", filepath.FromSlash(strings.TrimPrefix(sitePath, "/")))
}

func (w *Writer) contentFile(sitePath string) string {
	return w.contentDir(sitePath) + ".md"
}

// beginStaging creates the sibling staging directory the tree is
// written into. A stale stage from an aborted run is discarded.
func (w *Writer) beginStaging() error {
	stage := w.output.Directory + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(stage, "content"), 0o755); err != nil {
		return err
	}
	w.stageDir = stage
	slog.Debug("Initialized staging directory", "staging", stage, "final", w.output.Directory)
	return nil
}

// finalizeStaging promotes the staged tree:
//  1. Move the current output (if any) to <output>.prev.
//  2. Rename staging to the output path.
//  3. Drop the backup unless keep_previous is set.
func (w *Writer) finalizeStaging() error {
	if w.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}

	prev := w.output.Directory + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}
	if _, err := os.Stat(w.output.Directory); err == nil {
		if err := os.Rename(w.output.Directory, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(w.stageDir, w.output.Directory); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	w.stageDir = ""

	if !w.output.KeepPrevious {
		if err := os.RemoveAll(prev); err != nil {
			slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
		}
	}

	slog.Info("Promoted staging directory", "output", w.output.Directory)
	return nil
}

// abortStaging removes the staging directory after a failed build so
// no orphaned temp trees pile up.
func (w *Writer) abortStaging() {
	if w.stageDir == "" {
		return
	}
	dir := w.stageDir
	w.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", "staging", dir, logfields.Error(err))
	}
}
