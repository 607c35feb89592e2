package archiveapi

import (
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
)

type responseDTO struct {
	Data *dataDTO `json:"data"`
}

type dataDTO struct {
	Meta    metaDTO     `json:"meta"`
	Results []itemDTO   `json:"results"`
	Filters *filtersDTO `json:"filters"`
}

type metaDTO struct {
	Hits int `json:"hits"`
}

type filtersDTO struct {
	Groups []filterGroupDTO `json:"groups"`
	Single []filterItemDTO  `json:"single"`
}

type filterGroupDTO struct {
	Key      string          `json:"key"`
	Text     string          `json:"text"`
	Children []filterItemDTO `json:"children"`
}

type filterItemDTO struct {
	ID          string          `json:"id"`
	Text        string          `json:"text"`
	DocCount    int             `json:"doc_count"`
	IsAvailable *bool           `json:"is_available"`
	Children    []filterItemDTO `json:"children"`
}

// itemDTO is the flat hit shape shared by every endpoint.
type itemDTO struct {
	ID         string              `json:"id"`
	EntityType string              `json:"entity_type"`
	Title      string              `json:"title"`
	Date       string              `json:"date"`
	ImgSrc     string              `json:"img_src"`
	Highlight  map[string][]string `json:"_highlight"`

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
}

func (d *dataDTO) toResult(kind artifact.Kind) *result.Result {
	out := &result.Result{
		Items: make([]artifact.Artifact, 0, len(d.Results)),
		Meta:  result.Meta{Hits: d.Meta.Hits},
	}
	for i := range d.Results {
		out.Items = append(out.Items, d.Results[i].toArtifact(kind))
	}
	if d.Filters != nil {
		out.FilterGroups = make([]result.FilterGroupItem, 0, len(d.Filters.Groups))
		for _, g := range d.Filters.Groups {
			out.FilterGroups = append(out.FilterGroups, result.FilterGroupItem{
				Key:      g.Key,
				Text:     g.Text,
				Children: toFilterItems(g.Children),
			})
		}
		out.SingleFilters = toFilterItems(d.Filters.Single)
	}
	return out
}

func toFilterItems(in []filterItemDTO) []result.FilterItem {
	out := make([]result.FilterItem, 0, len(in))
	for _, f := range in {
		available := f.DocCount > 0
		if f.IsAvailable != nil {
			available = *f.IsAvailable
		}
		item := result.FilterItem{
			ID:          f.ID,
			Text:        f.Text,
			DocCount:    f.DocCount,
			IsAvailable: available,
		}
		if len(f.Children) > 0 {
			item.Children = toFilterItems(f.Children)
		}
		out = append(out, item)
	}
	return out
}

// toArtifact builds the artefact of the endpoint kind. Lookups by id only
// hit the works endpoint but may return any work entity type.
func (it *itemDTO) toArtifact(kind artifact.Kind) artifact.Artifact {
	var a artifact.Artifact
	switch kind {
	case artifact.KindArchivals:
		a = artifact.NewArchival(it.ID, it.Title, it.Date, it.ImgSrc, artifact.ArchivalDetails{
			Repository: it.Repository,
			Summary:    it.Summary,
			Signature:  it.Signature,
		})
	case artifact.KindLiteratureReferences:
		a = artifact.NewLiteratureReference(it.ID, it.Title, it.Date, artifact.LiteratureDetails{
			Authors:         it.Authors,
			PublishLocation: it.PublishLocation,
			PublishDate:     it.PublishDate,
			ReferenceNumber: it.ReferenceNumber,
		})
	default:
		et, err := artifact.ParseEntityType(it.EntityType)
		if err != nil {
			et = artifact.EntityUnknown
		}
		a = artifact.NewWork(it.ID, et, it.Title, it.Date, it.ImgSrc, artifact.WorkDetails{
			Artist:          it.Artist,
			Inventor:        it.Inventor,
			Medium:          it.Medium,
			Dimensions:      it.Dimensions,
			Repository:      it.Repository,
			Owner:           it.Owner,
			InventoryNumber: it.InventoryNumber,
			SortingNumber:   it.SortingNumber,
		})
	}
	if len(it.Highlight) > 0 {
		a = a.WithHighlight(it.Highlight)
	}
	return a
}
