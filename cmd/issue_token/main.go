// issue_token emite un JWT firmado con JWT_SECRET para cuentas de servicio y pruebas locales.
// La emisión de tokens de usuarios finales la hace el proveedor de identidad.
//
// Uso: go run ./cmd/issue_token -role service -user reconciler-cron [-company c1] [-ttl 60]
package main

import (
	"flag"
	"fmt"
	"os"

	httpRouter "github.com/jhoicas/weight-dispute-api/internal/interfaces/http"
	"github.com/jhoicas/weight-dispute-api/pkg/config"
	"github.com/jhoicas/weight-dispute-api/pkg/jwt"
)

var roles = map[string]bool{
	httpRouter.RoleAdmin:    true,
	httpRouter.RoleReviewer: true,
	httpRouter.RoleSeller:   true,
	httpRouter.RoleService:  true,
}

func main() {
	role := flag.String("role", httpRouter.RoleService, "rol: admin, reviewer, seller o service")
	user := flag.String("user", "", "identificador del usuario o cuenta de servicio")
	company := flag.String("company", "", "empresa (obligatoria para seller)")
	ttl := flag.Int("ttl", 60, "vigencia en minutos")
	flag.Parse()

	if !roles[*role] || *user == "" || *ttl <= 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *role == httpRouter.RoleSeller && *company == "" {
		fmt.Fprintln(os.Stderr, "un token de seller requiere -company")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	token, err := jwt.Generate(cfg.JWT.Secret, *user, *company, *role, cfg.JWT.Issuer, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emitir token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
