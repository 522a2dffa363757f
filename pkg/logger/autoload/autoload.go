// Package autoload initializes the global logger from the environment.
// Blank-import it from main.
package autoload

import (
	configx "github.com/tawanchai/bankdesk/pkg/config"
	logx "github.com/tawanchai/bankdesk/pkg/logger"
)

func init() {
	cfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*cfg)
}
