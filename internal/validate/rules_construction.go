package validate

// zeroLength：弧段长度不得为 0
func zeroLength(in *Input) (Finding, error) {
	x := in.Index
	return Finding{IDs: flagWhere(x, func(i int) bool { return x.Length[i] == 0 })}, nil
}

// simple：弧段不得自交、自叠或接触自身内部
func simple(in *Input) (Finding, error) {
	x := in.Index
	return Finding{IDs: flagWhere(x, func(i int) bool { return !x.Simple[i] })}, nil
}

// clusterTolerance：相邻顶点间距不得小于容差；仅检查顶点数大于 2 的弧段
// 违规顶点对同时作为诊断点集导出
func clusterTolerance(in *Input) (Finding, error) {
	x := in.Index
	f := Finding{IDs: IDSet{}, ExportName: ExportClusterTolerance}
	for i, a := range x.Arcs {
		if len(a.Coords) <= 2 {
			continue
		}
		for _, p := range x.Pairs[i] {
			if p.Dist() < in.MinVertexDist {
				f.IDs.Add(a.ID)
				f.Export = append(f.Export, ClusterPair{ArcID: a.ID, A: p.A, B: p.B})
			}
		}
	}
	return f, nil
}
