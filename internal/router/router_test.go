package router

import (
	"testing"

	"github.com/gin-gonic/gin"
)

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"/admin/payments/:id/approve":  "payments",
		"/admin/deliveries/:id/assign": "deliveries",
		"/admin/authz/roles":           "authz",
		"/admin":                       "admin",
		"":                             "system",
	}
	for object, want := range cases {
		if got := deriveAdminPermissionModule(object); got != want {
			t.Fatalf("module of %q want %s got %s", object, want, got)
		}
	}
}

func TestBuildAdminPermissionCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	noop := func(c *gin.Context) {}

	r := gin.New()
	r.POST("/api/v1/admin/login", noop)
	r.GET("/api/v1/admin/payments", noop)
	r.POST("/api/v1/admin/payments/:id/approve", noop)
	r.POST("/api/v1/admin/deliveries/:id/assign", noop)
	r.GET("/api/v1/cart", noop)

	items := buildAdminPermissionCatalog(r)
	if len(items) != 3 {
		t.Fatalf("catalog size want 3 got %d: %+v", len(items), items)
	}
	if items[0].Module != "deliveries" || items[0].Permission != "POST:/admin/deliveries/:id/assign" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[2].Object != "/admin/payments/:id/approve" || items[2].Method != "POST" {
		t.Fatalf("unexpected last item: %+v", items[2])
	}
}
