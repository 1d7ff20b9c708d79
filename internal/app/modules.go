package app

import (
	"github.com/oac-tree/oac-tree-gui-sub008/internal/registry"
	"github.com/oac-tree/oac-tree-gui-sub008/modules/control"
	"github.com/oac-tree/oac-tree-gui-sub008/modules/env_vars"
	"github.com/oac-tree/oac-tree-gui-sub008/modules/message"
	"github.com/oac-tree/oac-tree-gui-sub008/modules/userinput"
	"github.com/oac-tree/oac-tree-gui-sub008/modules/variables"
	"github.com/oac-tree/oac-tree-gui-sub008/modules/wait"
)

// coreModules is the definitive list of all instruction and variable
// modules compiled into the binary.
var coreModules = []registry.Module{
	&control.Module{},
	&wait.Module{},
	&message.Module{},
	&userinput.Module{},
	&variables.Module{},
	&env_vars.Module{},
}
