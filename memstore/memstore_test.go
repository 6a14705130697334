package memstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzl/go-mdparam/metadata"
)

func TestStoreRows(t *testing.T) {
	s := New()
	token := metadata.NewMetadataToken(metadata.TokenParam, 1)

	_, ok, err := s.ResolveConstant(token)
	require.NoError(t, err)
	assert.False(t, ok)

	s.SetConstant(token, int32(5))
	value, ok, err := s.ResolveConstant(token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(5), value)

	s.RemoveConstant(token)
	_, ok, err = s.ResolveConstant(token)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 3, s.Calls(OpResolveConstant))
	assert.True(t, s.HasImage())
	assert.False(t, NewDetached().HasImage())
}

func TestStoreReturnsCopiesOfAttributes(t *testing.T) {
	s := New()
	token := metadata.NewMetadataToken(metadata.TokenParam, 1)
	a := metadata.NewCustomAttribute(&metadata.TypeReference{Name: "AAttribute"})
	s.SetCustomAttributes(token, a)

	first, err := s.CustomAttributes(token)
	require.NoError(t, err)
	first[0] = nil

	second, err := s.CustomAttributes(token)
	require.NoError(t, err)
	assert.Same(t, a, second[0])
}

func TestStoreMissingRowsAreEmpty(t *testing.T) {
	s := New()
	token := metadata.NewMetadataToken(metadata.TokenParam, 9)

	attrs, err := s.CustomAttributes(token)
	require.NoError(t, err)
	assert.NotNil(t, attrs)
	assert.Empty(t, attrs)

	has, err := s.HasMarshalInfo(token)
	require.NoError(t, err)
	assert.False(t, has)

	mi, err := s.MarshalInfo(token)
	require.NoError(t, err)
	assert.Nil(t, mi)
}

func TestStoreFail(t *testing.T) {
	s := New()
	token := metadata.NewMetadataToken(metadata.TokenParam, 1)
	boom := errors.New("boom")
	s.Fail(OpHasCustomAttributes, boom)

	_, err := s.HasCustomAttributes(token)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "HasCustomAttributes 0x08000001")

	s.Fail(OpHasCustomAttributes, nil)
	_, err = s.HasCustomAttributes(token)
	assert.NoError(t, err)
}
