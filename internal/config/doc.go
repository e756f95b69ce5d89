// Package config provides configuration parsing for the sugar CLI.
//
// The configuration is stored in sugar.json at the project root. Every
// field is optional; missing values take the defaults from New.
//
// # Configuration File Structure
//
//	{
//	  "storage": {
//	    "backend": "sqlite",
//	    "path": ".sugar/store.db",
//	    "table": "sugar_items",
//	    "format": "json"
//	  },
//	  "walk": {
//	    "extensions": ["go", "ts"],
//	    "skip": [".git", "node_modules"]
//	  },
//	  "i18n": {
//	    "dir": "locales",
//	    "defaultLocale": "en"
//	  },
//	  "inspect": {
//	    "addr": "localhost:7070"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Backend:", cfg.Storage.Backend)
package config
