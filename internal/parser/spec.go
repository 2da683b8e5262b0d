package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maltedev/brain-product-parser/internal/driver"
	"github.com/maltedev/brain-product-parser/internal/models"
)

var ErrNoSpecifications = errors.New("specifications not found")

// SpecSelectors describe the characteristics block of a product page. Row,
// fragment and link selectors are evaluated relative to their parent.
type SpecSelectors struct {
	Blocks    string
	Sections  string
	Heading   string
	Rows      string
	Fragments string
	Links     string
}

func DefaultSpecSelectors() SpecSelectors {
	return SpecSelectors{
		Blocks:    "xpath=//div[@class='br-wrap-block br-elem-block']",
		Sections:  "xpath=//div[@class='br-pr-chr-item']",
		Heading:   "xpath=//h3",
		Rows:      "xpath=//div[span]",
		Fragments: "xpath=./span",
		Links:     "xpath=//a",
	}
}

// Path addresses one value in a SpecTree.
type Path struct {
	Section string
	Label   string
}

var (
	ManufacturerPath     = Path{Section: "Інші", Label: "Виробник"}
	MemoryPath           = Path{Section: "Функції пам'яті", Label: "Вбудована пам'ять"}
	ColorPath            = Path{Section: "Фізичні характеристики", Label: "Колір"}
	ScreenDiagonalPath   = Path{Section: "Дисплей", Label: "Діагональ екрану"}
	ScreenResolutionPath = Path{Section: "Дисплей", Label: "Роздільна здатність екрану"}
)

// Project pulls the five summary scalars out of tree. Each one is looked up
// on its own, so a missing path only blanks that scalar.
func Project(tree models.SpecTree) models.SpecSummary {
	lookup := func(p Path) models.Optional[string] {
		return tree.Lookup(p.Section, p.Label)
	}

	return models.SpecSummary{
		Manufacturer:     lookup(ManufacturerPath),
		Memory:           lookup(MemoryPath),
		Color:            lookup(ColorPath),
		ScreenDiagonal:   lookup(ScreenDiagonalPath),
		ScreenResolution: lookup(ScreenResolutionPath),
	}
}

type SpecParser struct {
	selectors SpecSelectors
	logger    *slog.Logger
}

func NewSpecParser(selectors SpecSelectors, logger *slog.Logger) *SpecParser {
	return &SpecParser{
		selectors: selectors,
		logger:    logger.With("component", "spec_parser"),
	}
}

// Parse builds a fresh SpecTree from the characteristics blocks on page.
// Broken sections and rows are logged and skipped.
func (p *SpecParser) Parse(page driver.Page) (models.SpecTree, error) {
	blocks, err := page.Locate(p.selectors.Blocks).All()
	if err != nil {
		return nil, fmt.Errorf("failed to locate specification blocks: %w", err)
	}
	if len(blocks) == 0 {
		return nil, ErrNoSpecifications
	}

	tree := make(models.SpecTree)
	for i, block := range blocks {
		sections, err := block.Locate(p.selectors.Sections).All()
		if err != nil {
			p.logger.Error("failed to locate specification sections", "block", i, "error", err)
			continue
		}

		for _, section := range sections {
			title, rows, err := p.parseSection(section)
			if err != nil {
				p.logger.Warn("skipping specification section", "block", i, "error", err)
				continue
			}
			if _, dup := tree[title]; dup {
				p.logger.Warn("repeated specification section", "section", title)
			}
			tree.Merge(title, rows)
		}
		p.logger.Debug("collected specification block", "block", i)
	}

	p.logger.Info("collected specification sections", "count", len(tree))
	return tree, nil
}

func (p *SpecParser) parseSection(section driver.Element) (string, map[string]string, error) {
	heading, err := section.Locate(p.selectors.Heading).First().Text()
	if err != nil {
		return "", nil, fmt.Errorf("section heading: %w", err)
	}
	title := CleanText(heading)
	if title == "" {
		return "", nil, errors.New("section heading is empty")
	}

	rowElements, err := section.Locate(p.selectors.Rows).All()
	if err != nil {
		return "", nil, fmt.Errorf("section %q rows: %w", title, err)
	}

	rows := make(map[string]string, len(rowElements))
	for _, row := range rowElements {
		label, value, err := p.parseRow(row)
		if err != nil {
			p.logger.Warn("failed to parse specification row", "section", title, "error", err)
			continue
		}
		if label == "" {
			continue
		}
		if v, ok := value.Get(); ok {
			rows[label] = v
		}
	}

	return title, rows, nil
}

// parseRow reads a label span followed by value fragments. Link texts win
// over the fragment's own text; all parts are joined with ", ". A row with
// fewer than two spans has no label.
func (p *SpecParser) parseRow(row driver.Element) (string, models.Optional[string], error) {
	spans, err := row.Locate(p.selectors.Fragments).All()
	if err != nil {
		return "", models.None[string](), err
	}
	if len(spans) < 2 {
		return "", models.None[string](), nil
	}

	labelText, err := spans[0].Text()
	if err != nil {
		return "", models.None[string](), fmt.Errorf("row label: %w", err)
	}
	label := CleanText(labelText)

	var parts []string
	for _, fragment := range spans[1:] {
		texts, err := p.fragmentTexts(fragment)
		if err != nil {
			return label, models.None[string](), fmt.Errorf("row %q: %w", label, err)
		}
		parts = append(parts, texts...)
	}

	value := CleanText(strings.Join(parts, ", "))
	if value == "" {
		return label, models.None[string](), nil
	}
	return label, models.Some(value), nil
}

func (p *SpecParser) fragmentTexts(fragment driver.Element) ([]string, error) {
	links, err := fragment.Locate(p.selectors.Links).All()
	if err != nil {
		return nil, err
	}

	if len(links) == 0 {
		text, err := fragment.Text()
		if err != nil {
			return nil, err
		}
		if cleaned := CleanText(text); cleaned != "" {
			return []string{cleaned}, nil
		}
		return nil, nil
	}

	texts := make([]string, 0, len(links))
	for _, link := range links {
		text, err := link.Text()
		if err != nil {
			return nil, err
		}
		if cleaned := CleanText(text); cleaned != "" {
			texts = append(texts, cleaned)
		}
	}
	return texts, nil
}
