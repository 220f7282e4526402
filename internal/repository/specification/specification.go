package specification

import "assembly-dashboard-be/pkg/datasource"

// Specification narrows one select against the data source.
type Specification interface {
	Apply(p datasource.Params) datasource.Params
}

// Build folds specs into select params.
func Build(specs ...Specification) datasource.Params {
	var p datasource.Params
	for _, s := range specs {
		if s != nil {
			p = s.Apply(p)
		}
	}
	return p
}
