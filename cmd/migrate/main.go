// Migration script for the build tracker schema
package main

import (
	"flag"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/raids-lab/buildtracker/dao/migrate"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "path of the config file, defaults to the server lookup")
	rollback := flag.Bool("rollback", false, "rollback the last migration instead of migrating")
	flag.Parse()

	var conf *config.Config
	if *configPath == "" {
		conf = config.GetConfig()
	} else {
		var err error
		conf, err = config.Load(*configPath)
		if err != nil {
			panic(fmt.Errorf("load config: %w", err))
		}
	}

	db, err := query.Open(conf)
	if err != nil {
		panic(err)
	}

	if *rollback {
		if err := migrate.RollbackLast(db); err != nil {
			panic(err)
		}
		klog.Info("rollback finished")
		return
	}
	if err := migrate.Run(db); err != nil {
		panic(err)
	}
	klog.Info("migration finished")
}
