package results

import "github.com/cranach-archive/lighttable/internal/routing"

// Router is the routing bridge subset the holder needs for page sync.
type Router interface {
	UpdateSearchQueryParams(changes []routing.Change)
	Subscribe(param routing.Param, fn routing.HandlerFunc) func()
}
