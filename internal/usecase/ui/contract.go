package ui

import "github.com/cranach-archive/lighttable/internal/routing"

// Router is the routing bridge subset the UI store needs.
type Router interface {
	UpdateLanguageParam(lang string)
	Subscribe(param routing.Param, fn routing.HandlerFunc) func()
}
