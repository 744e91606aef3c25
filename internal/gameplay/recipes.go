package gameplay

// RecipeDefinition is the immutable cost/output/duration table entry for a
// recipe.
type RecipeDefinition struct {
	CraftTicks uint16
	Inputs     []ResourceStack
	Outputs    []ResourceStack
}

// RecipeDefinitionFor returns the immutable definition for a recipe kind.
func RecipeDefinitionFor(recipe RecipeKind) RecipeDefinition {
	switch recipe {
	case RecipeSmeltIronPlate:
		return RecipeDefinition{
			CraftTicks: 2,
			Inputs:     []ResourceStack{{Resource: ResourceIronOre, Amount: 1}},
			Outputs:    []ResourceStack{{Resource: ResourceIronPlate, Amount: 1}},
		}
	case RecipeSmeltCopperPlate:
		return RecipeDefinition{
			CraftTicks: 2,
			Inputs:     []ResourceStack{{Resource: ResourceCopperOre, Amount: 1}},
			Outputs:    []ResourceStack{{Resource: ResourceCopperPlate, Amount: 1}},
		}
	case RecipeCraftGear:
		return RecipeDefinition{
			CraftTicks: 3,
			Inputs:     []ResourceStack{{Resource: ResourceIronPlate, Amount: 2}},
			Outputs:    []ResourceStack{{Resource: ResourceGear, Amount: 1}},
		}
	default:
		return RecipeDefinition{}
	}
}

// PlaceableBuildCost returns the immutable resource cost of a placeable kind.
func PlaceableBuildCost(kind PlaceableKind) []ResourceStack {
	switch kind {
	case PlaceableBurnerDrill:
		return []ResourceStack{{Resource: ResourceIronPlate, Amount: 3}, {Resource: ResourceGear, Amount: 2}}
	case PlaceableStoneFurnace:
		return []ResourceStack{{Resource: ResourceStone, Amount: 6}}
	case PlaceableWoodenChest:
		return []ResourceStack{{Resource: ResourceStone, Amount: 2}}
	case PlaceableAssemblerMk1:
		return []ResourceStack{{Resource: ResourceIronPlate, Amount: 9}, {Resource: ResourceGear, Amount: 5}}
	default:
		return nil
	}
}

// PlaceableMaxHealth returns the immutable max health of a placeable kind.
func PlaceableMaxHealth(kind PlaceableKind) uint16 {
	switch kind {
	case PlaceableWoodenChest:
		return 120
	case PlaceableStoneFurnace:
		return 180
	case PlaceableBurnerDrill:
		return 220
	case PlaceableAssemblerMk1:
		return 320
	default:
		return 0
	}
}
