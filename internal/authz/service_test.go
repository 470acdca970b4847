package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:authz_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

type enforceCase struct {
	adminID uint
	object  string
	action  string
	want    bool
}

func assertEnforce(t *testing.T, svc *Service, cases []enforceCase) {
	t.Helper()
	for _, tc := range cases {
		got, err := svc.EnforceAdmin(tc.adminID, tc.object, tc.action)
		if err != nil {
			t.Fatalf("enforce admin=%d %s %s failed: %v", tc.adminID, tc.action, tc.object, err)
		}
		if got != tc.want {
			t.Fatalf("enforce admin=%d %s %s want %v got %v", tc.adminID, tc.action, tc.object, tc.want, got)
		}
	}
}

func TestEnforceAdminWithRolePolicy(t *testing.T) {
	svc := newTestService(t)
	if err := svc.GrantRolePolicy("stock keeper", "/admin/products/:id", "get"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(1, []string{"stock keeper"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	assertEnforce(t, svc, []enforceCase{
		{adminID: 1, object: "/api/v1/admin/products/42", action: "GET", want: true},
		{adminID: 1, object: "/api/v1/admin/products/42", action: "POST", want: false},
		{adminID: 2, object: "/api/v1/admin/products/42", action: "GET", want: false},
	})

	roles, err := svc.GetAdminRoles(1)
	if err != nil {
		t.Fatalf("get admin roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:stock_keeper" {
		t.Fatalf("roles want [role:stock_keeper] got %v", roles)
	}
}

func TestSetAdminRolesReplacesPrevious(t *testing.T) {
	svc := newTestService(t)
	if err := svc.GrantRolePolicy("dispatch", "/admin/deliveries", "GET"); err != nil {
		t.Fatalf("grant dispatch policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("cashier", "/admin/payments", "GET"); err != nil {
		t.Fatalf("grant cashier policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(2, []string{"dispatch"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	if err := svc.SetAdminRoles(2, []string{"cashier"}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}

	assertEnforce(t, svc, []enforceCase{
		{adminID: 2, object: "/admin/deliveries", action: "GET", want: false},
		{adminID: 2, object: "/admin/payments", action: "GET", want: true},
	})
}

func TestNormalizeRoleAndObject(t *testing.T) {
	if _, err := NormalizeRole("  "); !errors.Is(err, ErrRoleRequired) {
		t.Fatalf("blank role want ErrRoleRequired got %v", err)
	}
	if _, err := NormalizeRole("__anchor__"); !errors.Is(err, ErrRoleReserved) {
		t.Fatalf("anchor role want ErrRoleReserved got %v", err)
	}
	if role, _ := NormalizeRole("role:night shift"); role != "role:night_shift" {
		t.Fatalf("normalize role got %s", role)
	}

	objects := map[string]string{
		"/api/v1/admin/orders/:id": "/admin/orders/:id",
		"admin/orders":             "/admin/orders",
		"/api/v1":                  "/",
		"":                         "/",
	}
	for in, want := range objects {
		if got := NormalizeObject(in); got != want {
			t.Fatalf("normalize object %q want %q got %q", in, want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := newTestService(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	// 重复执行不应报错
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	missing := map[string]bool{}
	for _, seed := range BuiltinRoleSeeds() {
		missing["role:"+seed.Role] = true
	}
	for _, role := range roles {
		delete(missing, role)
	}
	if len(missing) != 0 {
		t.Fatalf("builtin roles missing: %v", missing)
	}

	if err := svc.SetAdminRoles(3, []string{"dispatcher"}); err != nil {
		t.Fatalf("set dispatcher failed: %v", err)
	}
	if err := svc.SetAdminRoles(4, []string{"finance"}); err != nil {
		t.Fatalf("set finance failed: %v", err)
	}
	assertEnforce(t, svc, []enforceCase{
		{adminID: 3, object: "/api/v1/admin/payments", action: "GET", want: true},
		{adminID: 3, object: "/api/v1/admin/deliveries/7/assign", action: "POST", want: true},
		{adminID: 3, object: "/api/v1/admin/payments/7/approve", action: "POST", want: false},
		{adminID: 4, object: "/api/v1/admin/payments/7/approve", action: "POST", want: true},
		{adminID: 4, object: "/api/v1/admin/deliveries/7/assign", action: "POST", want: false},
	})

	policies, err := svc.GetAdminPolicies(3)
	if err != nil {
		t.Fatalf("get admin policies failed: %v", err)
	}
	inherited := false
	for _, p := range policies {
		if p.Subject == "role:readonly_auditor" && p.Action == "GET" {
			inherited = true
		}
	}
	if !inherited {
		t.Fatalf("dispatcher policies should include inherited readonly policy: %+v", policies)
	}
}

func TestDeleteRole(t *testing.T) {
	svc := newTestService(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.DeleteRole("finance"); !errors.Is(err, ErrRoleBuiltin) {
		t.Fatalf("delete builtin role want ErrRoleBuiltin got %v", err)
	}

	if err := svc.GrantRolePolicy("temp", "/admin/orders", "GET"); err != nil {
		t.Fatalf("grant temp policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(5, []string{"temp"}); err != nil {
		t.Fatalf("set temp role failed: %v", err)
	}
	if err := svc.DeleteRole("temp"); err != nil {
		t.Fatalf("delete custom role failed: %v", err)
	}

	assertEnforce(t, svc, []enforceCase{
		{adminID: 5, object: "/admin/orders", action: "GET", want: false},
	})
	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	for _, role := range roles {
		if role == "role:temp" {
			t.Fatalf("deleted role still listed: %v", roles)
		}
	}
}

func TestNilServiceUnavailable(t *testing.T) {
	var svc *Service
	if _, err := svc.EnforceAdmin(1, "/admin", "GET"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("nil service want ErrUnavailable got %v", err)
	}
	if err := svc.SetAdminRoles(0, nil); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("zero admin want ErrAdminRequired got %v", err)
	}
}
