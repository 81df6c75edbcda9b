package modkit

import "codefill/internal/modkit/module"

// Module is what every New constructor returns
type Module = module.Module
