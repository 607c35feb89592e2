package meili

import (
	"strings"

	"github.com/cranach-archive/lighttable/internal/domain/artifact"
)

// document is the indexed shape of an artefact.
type document struct {
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	ImgSrc     string `json:"img_src"`

	Artist          string `json:"artist"`
	Inventor        string `json:"inventor"`
	Medium          string `json:"medium"`
	Dimensions      string `json:"dimensions"`
	Repository      string `json:"repository"`
	Owner           string `json:"owner"`
	InventoryNumber string `json:"inventory_number"`
	SortingNumber   string `json:"sorting_number"`

	Summary   string `json:"summary"`
	Signature string `json:"signature"`

	Authors         string `json:"authors"`
	PublishLocation string `json:"publish_location"`
	PublishDate     string `json:"publish_date"`
	ReferenceNumber string `json:"reference_number"`

	Formatted map[string]any `json:"_formatted"`
}

func (d *document) toArtifact(kind artifact.Kind) artifact.Artifact {
	var a artifact.Artifact
	switch kind {
	case artifact.KindArchivals:
		a = artifact.NewArchival(d.ID, d.Title, d.Date, d.ImgSrc, artifact.ArchivalDetails{
			Repository: d.Repository,
			Summary:    d.Summary,
			Signature:  d.Signature,
		})
	case artifact.KindLiteratureReferences:
		a = artifact.NewLiteratureReference(d.ID, d.Title, d.Date, artifact.LiteratureDetails{
			Authors:         d.Authors,
			PublishLocation: d.PublishLocation,
			PublishDate:     d.PublishDate,
			ReferenceNumber: d.ReferenceNumber,
		})
	default:
		et, err := artifact.ParseEntityType(d.EntityType)
		if err != nil {
			et = artifact.EntityUnknown
		}
		a = artifact.NewWork(d.ID, et, d.Title, d.Date, d.ImgSrc, artifact.WorkDetails{
			Artist:          d.Artist,
			Inventor:        d.Inventor,
			Medium:          d.Medium,
			Dimensions:      d.Dimensions,
			Repository:      d.Repository,
			Owner:           d.Owner,
			InventoryNumber: d.InventoryNumber,
			SortingNumber:   d.SortingNumber,
		})
	}
	if h := d.highlight(); len(h) > 0 {
		a = a.WithHighlight(h)
	}
	return a
}

// highlight keeps formatted string fields that carry a highlight tag.
func (d *document) highlight() map[string][]string {
	out := make(map[string][]string)
	for k, v := range d.Formatted {
		s, ok := v.(string)
		if ok && strings.Contains(s, "<em>") {
			out[k] = []string{s}
		}
	}
	return out
}
