package facetsearch

import (
	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/filter"
	"github.com/cranach-archive/lighttable/internal/routing"
)

// subscribe registers one handler per routing parameter the controller
// mirrors. Handlers only update local state.
func (c *Controller) subscribe() {
	subs := []func(){
		c.router.Subscribe(routing.ParamFilters, c.handleFilters),
		c.router.Subscribe(routing.ParamFromYear, c.handleDating),
		c.router.Subscribe(routing.ParamToYear, c.handleDating),
		c.router.Subscribe(routing.ParamIsBestOf, c.handleIsBestOf),
	}
	if c.cfg.SupportsEntityType {
		subs = append(subs, c.router.Subscribe(routing.ParamKind, c.handleKind))
	}
	for _, f := range c.cfg.FreeTextFields {
		subs = append(subs, c.router.Subscribe(c.cfg.RoutingParamMap[f], c.freetextHandler(f)))
	}

	c.mu.Lock()
	c.unsubs = subs
	c.mu.Unlock()
}

func (c *Controller) handleFilters(_ routing.NotificationType, p routing.ParamValue) {
	groups := make(filter.Groups)
	if !p.Removed {
		groups = filter.DecodeGroups(p.Value)
	}
	c.mu.Lock()
	c.filters.Groups = groups
	c.mu.Unlock()
}

// handleDating serves both year parameters. The range is rebuilt from the
// current query so a navigation moving both bounds is applied as one unit.
func (c *Controller) handleDating(_ routing.NotificationType, _ routing.ParamValue) {
	from := filter.MinLowerDatingYear
	if v, ok := c.router.Get(routing.ParamFromYear); ok {
		from = filter.ParseYear(v, filter.MinLowerDatingYear)
	}
	to := filter.MaxUpperDatingYear
	if v, ok := c.router.Get(routing.ParamToYear); ok {
		to = filter.ParseYear(v, filter.MaxUpperDatingYear)
	}
	c.mu.Lock()
	c.filters.Dating = filter.NewDating(from, to)
	c.mu.Unlock()
}

func (c *Controller) handleIsBestOf(_ routing.NotificationType, p routing.ParamValue) {
	c.mu.Lock()
	c.filters.IsBestOf = !p.Removed && p.Value == routing.BestOfValue
	c.mu.Unlock()
}

func (c *Controller) handleKind(_ routing.NotificationType, p routing.ParamValue) {
	t := artifact.EntityUnknown
	if !p.Removed {
		parsed, err := artifact.ParseEntityType(p.Value)
		if err != nil {
			c.logger.Debug("ignoring unknown entity type in url", zap.String("value", p.Value))
		} else {
			t = parsed
		}
	}
	c.mu.Lock()
	c.filters.EntityType = t
	c.mu.Unlock()
}

func (c *Controller) freetextHandler(field filter.FieldName) routing.HandlerFunc {
	return func(_ routing.NotificationType, p routing.ParamValue) {
		value := ""
		if !p.Removed {
			value = p.Value
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		c.freetext.Merge(filter.FreeText{field: value})
		c.applied.Merge(filter.FreeText{field: value})
	}
}
