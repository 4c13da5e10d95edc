package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserProfile_Actions(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantCreate bool
		wantRead   bool
		wantUpdate bool
		wantDelete bool
	}{
		{
			name:       "администратор может всё",
			role:       RoleAdministrator,
			wantCreate: true,
			wantRead:   true,
			wantUpdate: true,
			wantDelete: true,
		},
		{
			name:       "редактор не удаляет",
			role:       RoleEditor,
			wantCreate: true,
			wantRead:   true,
			wantUpdate: true,
			wantDelete: false,
		},
		{
			name:       "наблюдатель только читает",
			role:       RoleViewer,
			wantCreate: false,
			wantRead:   true,
			wantUpdate: false,
			wantDelete: false,
		},
		{
			name: "неизвестная роль ничего не может",
			role: "XX",
		},
		{
			name: "пустая роль ничего не может",
			role: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &UserProfile{AllowedActions: tt.role}
			assert.Equal(t, tt.wantCreate, p.CanCreate())
			assert.Equal(t, tt.wantRead, p.CanRead())
			assert.Equal(t, tt.wantUpdate, p.CanUpdate())
			assert.Equal(t, tt.wantDelete, p.CanDelete())
		})
	}
}

// Набор действий каждой роли включает набор более слабой роли.
func TestUserProfile_RolesAreMonotonic(t *testing.T) {
	admin := &UserProfile{AllowedActions: RoleAdministrator}
	editor := &UserProfile{AllowedActions: RoleEditor}
	viewer := &UserProfile{AllowedActions: RoleViewer}

	checks := []func(p *UserProfile) bool{
		(*UserProfile).CanCreate,
		(*UserProfile).CanRead,
		(*UserProfile).CanUpdate,
		(*UserProfile).CanDelete,
	}
	for _, can := range checks {
		if can(viewer) {
			assert.True(t, can(editor))
		}
		if can(editor) {
			assert.True(t, can(admin))
		}
	}
}

func TestUserProfile_GrantedFeatures(t *testing.T) {
	tests := []struct {
		name        string
		featureList string
		want        []string
	}{
		{
			name:        "обычный список",
			featureList: "basic_export,import",
			want:        []string{"basic_export", "import"},
		},
		{
			name:        "пробелы и пустые элементы отбрасываются",
			featureList: " basic_export , ,import, ",
			want:        []string{"basic_export", "import"},
		},
		{
			name:        "пустая строка",
			featureList: "",
			want:        nil,
		},
		{
			name:        "одна фича",
			featureList: "auth",
			want:        []string{"auth"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &UserProfile{FeatureList: tt.featureList}
			assert.Equal(t, tt.want, p.GrantedFeatures())
		})
	}
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdministrator))
	assert.True(t, ValidRole(RoleEditor))
	assert.True(t, ValidRole(RoleViewer))
	assert.False(t, ValidRole("XX"))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("ad"))
}
