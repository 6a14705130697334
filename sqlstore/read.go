package sqlstore

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zzl/go-mdparam/metadata"
)

// ReadModule loads the methods and parameters of a stored module. The module is
// attached to this store, so parameter facets are queried on first access only.
func (this *Store) ReadModule(name string) (*metadata.Module, error) {
	var mvid string
	err := this.db.QueryRow("SELECT mvid FROM modules WHERE name = ?", name).Scan(&mvid)
	if err == sql.ErrNoRows {
		return nil, errors.Errorf("module %q not found", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query module")
	}
	module := metadata.NewModule(name, this.Image(name))
	if module.Mvid, err = uuid.Parse(mvid); err != nil {
		return nil, errors.Wrapf(err, "module %s mvid", name)
	}
	if err := this.readMethods(module); err != nil {
		return nil, err
	}
	if err := this.readParams(module); err != nil {
		return nil, err
	}
	this.logger.Debug("module read", zap.String("module", name), zap.Int("methods", len(module.Methods())))
	return module, nil
}

func (this *Store) readMethods(module *metadata.Module) error {
	rows, err := this.db.Query(
		"SELECT rid, name, declaring_type, return_type FROM methods WHERE module = ? ORDER BY rid", module.Name)
	if err != nil {
		return errors.Wrap(err, "query methods")
	}
	defer rows.Close()
	for rows.Next() {
		var rid uint32
		var name, declaringType, returnType string
		if err := rows.Scan(&rid, &name, &declaringType, &returnType); err != nil {
			return errors.Wrap(err, "scan method")
		}
		var ret *metadata.TypeReference
		if returnType != "" {
			ret = module.ParseTypeReference(returnType)
		}
		method := module.ReadMethod(rid, name, ret)
		method.DeclaringType = declaringType
	}
	return errors.Wrap(rows.Err(), "iterate methods")
}

func (this *Store) readParams(module *metadata.Module) error {
	rows, err := this.db.Query(
		"SELECT rid, method_rid, name, flags, type FROM params WHERE module = ? ORDER BY method_rid, sequence",
		module.Name)
	if err != nil {
		return errors.Wrap(err, "query params")
	}
	defer rows.Close()
	for rows.Next() {
		var rid, methodRID uint32
		var flags uint16
		var name, typeName string
		if err := rows.Scan(&rid, &methodRID, &name, &flags, &typeName); err != nil {
			return errors.Wrap(err, "scan param")
		}
		method := module.Method(metadata.NewMetadataToken(metadata.TokenMethod, methodRID))
		if method == nil {
			return errors.Errorf("param %d refers to missing method %d", rid, methodRID)
		}
		p := module.ReadParameter(rid, name, metadata.ParamAttributes(flags), module.ParseTypeReference(typeName))
		method.AddParameter(p)
	}
	return errors.Wrap(rows.Err(), "iterate params")
}
