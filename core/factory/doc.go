// Package factory is a small generic registry used to build pluggable modules
// (metrics sinks, journal backends) from configuration. A module is described
// by a type string and a map of raw settings decoded with json tags.
//
//	reg := factory.NewRegistry[journal.Store]()
//	_ = reg.Register("sqlite", func(conf map[string]any) (journal.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return journal.NewSQLiteStore(c.Path)
//	})
package factory
