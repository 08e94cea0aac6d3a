package pst

import "github.com/emk/pstsdk/internal/xerrors"

// errFolderNotFound builds the error returned when a folder lookup by
// display name comes up empty, mirroring the source's
// key_not_found<std::wstring> for folder names (a key space the lower
// layers' xerrors.KeyKind enum has no slot for, since only the NDB/LTP
// layers' key spaces are named there).
func errFolderNotFound(name string) error {
	return xerrors.New(xerrors.KindKeyNotFound, "folder %q not found", name)
}

// xerrorsNotFoundProp builds the not-found error for a table column that
// isn't present on a given table, mirroring internal/ltp's own
// KeyPropID-tagged not-found errors.
func xerrorsNotFoundProp(propID uint16) error {
	return xerrors.NotFound(xerrors.KeyPropID, propID)
}
