package sqlstore

import (
	"database/sql"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zzl/go-mdparam/metadata"
)

// Image serves the facet rows of one module. It implements metadata.Provider.
type Image struct {
	store  *Store
	module string
}

func (this *Store) Image(module string) *Image {
	return &Image{store: this, module: module}
}

func (this *Image) HasImage() bool {
	return this.store.db != nil
}

func (this *Image) exists(query string, token metadata.MetadataToken) (bool, error) {
	var one int
	err := this.store.db.QueryRow(query, this.module, int64(token)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (this *Image) ResolveConstant(token metadata.MetadataToken) (interface{}, bool, error) {
	this.store.logger.Debug("resolve constant", zap.String("module", this.module), zap.Stringer("token", token))
	var et byte
	var blob []byte
	err := this.store.db.QueryRow(
		"SELECT element_type, value FROM constants WHERE module = ? AND parent = ?",
		this.module, int64(token)).Scan(&et, &blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "query constant")
	}
	value, err := metadata.DecodeConstant(metadata.ElementType(et), blob)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decode constant of %s", token)
	}
	return value, true, nil
}

func (this *Image) HasCustomAttributes(token metadata.MetadataToken) (bool, error) {
	has, err := this.exists("SELECT 1 FROM custom_attributes WHERE module = ? AND parent = ? LIMIT 1", token)
	return has, errors.Wrap(err, "probe custom attributes")
}

func (this *Image) CustomAttributes(token metadata.MetadataToken) ([]*metadata.CustomAttribute, error) {
	this.store.logger.Debug("read custom attributes", zap.String("module", this.module), zap.Stringer("token", token))
	rows, err := this.store.db.Query(
		"SELECT id, type, blob FROM custom_attributes WHERE module = ? AND parent = ? ORDER BY seq",
		this.module, int64(token))
	if err != nil {
		return nil, errors.Wrap(err, "query custom attributes")
	}
	var ids []int64
	attrs := []*metadata.CustomAttribute{}
	for rows.Next() {
		var id int64
		var typeName string
		var blob []byte
		if err := rows.Scan(&id, &typeName, &blob); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan custom attribute")
		}
		ca := metadata.NewCustomAttribute(this.typeRef(typeName))
		ca.Blob = blob
		ids = append(ids, id)
		attrs = append(attrs, ca)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate custom attributes")
	}
	// args are read after the attribute cursor is closed: the pool has one connection
	for n, id := range ids {
		if err := this.readArgs(id, attrs[n]); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

func (this *Image) readArgs(id int64, ca *metadata.CustomAttribute) error {
	rows, err := this.store.db.Query(
		"SELECT name, field, element_type, value FROM custom_attribute_args WHERE attribute_id = ? ORDER BY position", id)
	if err != nil {
		return errors.Wrap(err, "query custom attribute args")
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var field bool
		var et byte
		var blob []byte
		if err := rows.Scan(&name, &field, &et, &blob); err != nil {
			return errors.Wrap(err, "scan custom attribute arg")
		}
		value, err := metadata.DecodeConstant(metadata.ElementType(et), blob)
		if err != nil {
			return errors.Wrapf(err, "decode argument of %s", ca.AttributeType)
		}
		if name == "" {
			ca.Args = append(ca.Args, value)
		} else {
			ca.NamedArgs = append(ca.NamedArgs, metadata.NamedArgument{Name: name, Field: field, Value: value})
		}
	}
	return errors.Wrap(rows.Err(), "iterate custom attribute args")
}

func (this *Image) HasMarshalInfo(token metadata.MetadataToken) (bool, error) {
	has, err := this.exists("SELECT 1 FROM field_marshal WHERE module = ? AND parent = ?", token)
	return has, errors.Wrap(err, "probe marshal info")
}

func (this *Image) MarshalInfo(token metadata.MetadataToken) (*metadata.MarshalInfo, error) {
	this.store.logger.Debug("read marshal info", zap.String("module", this.module), zap.Stringer("token", token))
	var blob []byte
	var fields sql.NullInt64
	err := this.store.db.QueryRow(
		"SELECT native_type, array_fields FROM field_marshal WHERE module = ? AND parent = ?",
		this.module, int64(token)).Scan(&blob, &fields)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query marshal info")
	}
	mi, err := decodeMarshal(blob)
	if err != nil {
		return nil, errors.Wrapf(err, "decode marshal info of %s", token)
	}
	restoreArrayFields(mi, fields)
	return mi, nil
}

// typeRef builds references without a module: attribute types live outside this image.
func (this *Image) typeRef(fullName string) *metadata.TypeReference {
	namespace, name := metadata.SplitTypeName(fullName)
	return &metadata.TypeReference{Namespace: namespace, Name: name}
}
