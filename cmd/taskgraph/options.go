package main

import (
	"github.com/opcycle/taskgraph/classify"
	"github.com/opcycle/taskgraph/ir"
)

func classifyOptions(callers ir.BlockCallers, entrances ir.ThreadEntrances) classify.Options {
	return classify.Options{BlockCallers: callers, ThreadEntrances: entrances}
}
