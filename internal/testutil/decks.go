package testutil

// BlockDeck is a two-part deck: Parts "Block" and "NewBlock", Materials
// "Generic" and "NewMat", one Assembly with two instances, a baseline
// *Boundary on Block-1.Bottom and Steps "Stretch" then "Shear".
const BlockDeck = `*Heading
** Job name: Block Model name: Block
Two blocks, one hyperelastic, one user material
*Preprint, echo=NO, model=NO, history=NO, contact=NO
**
** PARTS
**
*Part, name=Block
*Node
      1,           0.,           0.,           0.
      2,           1.,           0.,           0.
      3,           1.,           1.,           0.
      4,           0.,           1.,           0.
      5,           0.,           0.,           1.
      6,           1.,           0.,           1.
      7,           1.,           1.,           1.
      8,           0.,           1.,           1.
*Element, type=C3D8R
1, 1, 2, 3, 4, 5, 6, 7, 8
*Nset, nset=Top
 5, 6, 7, 8
*Nset, nset=Bottom, generate
 1, 4, 1
*Elset, elset=All
 1,
** Section: Section-1
*Solid Section, elset=All, material=Generic, controls=EC-1
,
*End Part
**
*Part, name=NewBlock
*Node
      1,           0.,           0.,           0.
      2,           1.,           0.,           0.
      3,           1.,           1.,           0.
      4,           0.,           1.,           0.
      5,           0.,           0.,           1.
      6,           1.,           0.,           1.
      7,           1.,           1.,           1.
      8,           0.,           1.,           1.
*Element, type=C3D8R, elset=All
1, 1, 2, 3, 4, 5, 6, 7, 8
*Nset, nset=Top
 5, 6, 7, 8
*Nset, nset=Bottom
 1, 2, 3, 4
*Solid Section, elset=All, material=NewMat
,
*End Part
**
** ASSEMBLY
**
*Assembly, name=Assembly
**
*Instance, name=Block-1, part=Block
*End Instance
**
*Instance, name=NewBlock-1, part=NewBlock
          2.,           0.,           0.
*End Instance
**
*Nset, nset=Corner, instance=NewBlock-1
 1,
*End Assembly
**
** MATERIALS
**
*Material, name=Generic
*Density
 1e-09,
*Hyperelastic, neo hooke
 0.5, 0.02
*Material, name=NewMat
*Density
 3.e-7,
*User Material, constants=2
 1000., 0.3
*Section Controls, name=EC-1, hourglass=ENHANCED
1., 1., 1.
**
** BOUNDARY CONDITIONS
**
*Boundary
Block-1.Bottom, 1, 3
NewBlock-1.Bottom, ENCASTRE
** ----------------------------------------------------------------
**
** STEP: Stretch
**
*Step, name=Stretch, nlgeom=YES
*Static
0.1, 1., 1e-05, 0.1
*Boundary, op=MOD
Block-1.Top, 1, 1
Block-1.Top, 2, 2, 1.
Block-1.Top, 3, 3
*Output, field, variable=PRESELECT
*Output, history
*Node Output
U, RF
*End Step
** ----------------------------------------------------------------
**
** STEP: Shear
**
*Step, name=Shear, nlgeom=YES
*Static
0.1, 1., 1e-05, 0.1
*Boundary, op=MOD
Block-1.Top, 1, 1, 1.
*Output, field, variable=PRESELECT
*End Step
`
