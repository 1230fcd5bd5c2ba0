// Package all importa todos los adapters para auto-registro.
//
//	import _ "github.com/dropDatabas3/hellocert/internal/store/adapters/all"
package all

import (
	_ "github.com/dropDatabas3/hellocert/internal/store/adapters/fs"
	_ "github.com/dropDatabas3/hellocert/internal/store/adapters/memory"
	_ "github.com/dropDatabas3/hellocert/internal/store/adapters/postgres"
	_ "github.com/dropDatabas3/hellocert/internal/store/adapters/redis"
)
