package domain

import "testing"

func TestRoleDirectoryResolve(t *testing.T) {
	dir := NewRoleDirectory([]int64{1}, []int64{2}, []int64{3})
	cases := map[int64]UserRole{
		1:  RoleSuperAdmin,
		2:  RoleModerator,
		3:  RoleEditor,
		42: RoleUser,
	}
	for id, expected := range cases {
		if role := dir.Resolve(id); role != expected {
			t.Fatalf("для %d ожидали %s, получили %s", id, expected, role)
		}
	}
}

func TestIsModerator(t *testing.T) {
	if !(Identity{Role: RoleModerator}).IsModerator() {
		t.Fatalf("модератор должен проходить проверку IsModerator")
	}
	if !(Identity{Role: RoleSuperAdmin}).IsModerator() {
		t.Fatalf("super_admin должен проходить проверку IsModerator")
	}
	if (Identity{Role: RoleEditor}).IsModerator() {
		t.Fatalf("editor не должен проходить проверку IsModerator")
	}
	if (Identity{Role: RoleUser}).IsAdmin() {
		t.Fatalf("user не должен проходить проверку IsAdmin")
	}
}
