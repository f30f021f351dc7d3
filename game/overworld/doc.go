// Package overworld implements the isometric overworld map.
//
// A Map is a stack of Layers (index = elevation) sharing one column/row grid. Each
// layer stores a dense row-major array of Tiles identified by global tile id (gid);
// gid 0 is the empty tile everywhere. Tilesets registered with SetTileset own ranges
// of gids, and every gid has an optional TileMeta carrying its animation, semantic
// type (for example "Stairs") and custom properties.
//
// Coordinates come in three spaces:
//
//	screen  orthogonal pixels
//	world   isometric pixels, OrthoToIsometric(screen)
//	tile    fractional column/row, WorldToTileSpace(world)
//
// CanMoveTo, GetElevationAt, IgnoreTileAbove and IsConcealed take tile-space positions.
// Update is called once per frame; the shadow map is only recomputed when a layer
// reports a tile change since the previous pass.
//
// Maps are usually built from a JSON Definition (see LoadDefinition).
package overworld
